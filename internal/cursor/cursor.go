// Package cursor turns item ids into opaque, tamper proof before and after tokens.
package cursor

import (
	"fmt"

	"github.com/gorilla/securecookie"

	"github.com/jdholdren/pageturn/internal/pageturn"
)

const (
	tokenName = "cursor"
	keyLength = 32
)

type payload struct {
	ID string `json:"id"`
}

// Codec signs, and optionally encrypts, cursor tokens.
type Codec struct {
	sc *securecookie.SecureCookie
}

// NewCodec builds a codec from the given keys.
//
// An empty hash key is replaced with a random one, so tokens only survive as long as the process.
// An empty block key leaves tokens signed but readable; otherwise it must be 16, 24 or 32 bytes.
func NewCodec(hashKey, blockKey []byte) (Codec, error) {
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(keyLength)
		if hashKey == nil {
			return Codec{}, fmt.Errorf("error generating cursor hash key")
		}
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}

	sc := securecookie.New(hashKey, blockKey).
		MaxAge(0).
		SetSerializer(securecookie.JSONEncoder{})

	// Surfaces key errors now rather than on the first request
	if _, err := sc.Encode(tokenName, payload{}); err != nil {
		return Codec{}, fmt.Errorf("error creating cursor codec: %s", err)
	}

	return Codec{sc: sc}, nil
}

// Encode returns the token for the item id.
func (c Codec) Encode(id string) (string, error) {
	token, err := c.sc.Encode(tokenName, payload{ID: id})
	if err != nil {
		return "", fmt.Errorf("error encoding cursor: %s", err)
	}

	return token, nil
}

// Decode returns the item id carried by token. Any failure wraps [pageturn.ErrInvalidCursor].
func (c Codec) Decode(token string) (string, error) {
	var p payload
	if err := c.sc.Decode(tokenName, token, &p); err != nil {
		return "", fmt.Errorf("%w: %s", pageturn.ErrInvalidCursor, err)
	}
	if p.ID == "" {
		return "", fmt.Errorf("%w: empty id", pageturn.ErrInvalidCursor)
	}

	return p.ID, nil
}
