package cart

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
)

const (
	cartCookie     = "cart"
	wishlistCookie = "wishlist"
	cookieMaxAge   = 86400 * 30
	maxCookieBytes = 4000
)

// Jar reads and writes the cart and wishlist as signed, encrypted cookies.
type Jar struct {
	codec  *securecookie.SecureCookie
	secure bool
}

func NewJar(secret string, secure bool) *Jar {
	hashKey := sha256.Sum256([]byte("hash:" + secret))
	blockKey := sha256.Sum256([]byte("block:" + secret))

	codec := securecookie.New(hashKey[:], blockKey[:])
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(cookieMaxAge)
	codec.MaxLength(maxCookieBytes)

	return &Jar{
		codec:  codec,
		secure: secure,
	}
}

// wireLine is the cookie form of a Line: [product, variant, quantity].
type wireLine Line

func (l wireLine) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{l.ProductID, l.VariantID, l.Quantity})
}

func (l *wireLine) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return errors.New("malformed cart line")
	}
	if err := json.Unmarshal(raw[0], &l.ProductID); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &l.VariantID); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &l.Quantity)
}

// LoadCart returns an empty cart when the cookie is missing or has been tampered with.
func (j *Jar) LoadCart(r *http.Request) *Cart {
	var wire []wireLine
	j.load(r, cartCookie, &wire)

	c := &Cart{}
	for _, l := range wire {
		c.Lines = append(c.Lines, Line(l))
	}
	return c
}

func (j *Jar) SaveCart(w http.ResponseWriter, c *Cart) error {
	wire := make([]wireLine, len(c.Lines))
	for i, l := range c.Lines {
		wire[i] = wireLine(l)
	}
	return j.save(w, cartCookie, wire)
}

func (j *Jar) LoadWishlist(r *http.Request) *Wishlist {
	wl := &Wishlist{}
	j.load(r, wishlistCookie, &wl.ProductIDs)
	return wl
}

func (j *Jar) SaveWishlist(w http.ResponseWriter, wl *Wishlist) error {
	ids := wl.ProductIDs
	if ids == nil {
		ids = []string{}
	}
	return j.save(w, wishlistCookie, ids)
}

func (j *Jar) load(r *http.Request, name string, dst interface{}) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return
	}
	_ = j.codec.Decode(name, cookie.Value, dst)
}

func (j *Jar) save(w http.ResponseWriter, name string, value interface{}) error {
	encoded, err := j.codec.Encode(name, value)
	if err != nil {
		return fmt.Errorf("encode %s cookie: %w", name, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   j.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
