package hasher

import "golang.org/x/crypto/bcrypt"

// Hasher produces salted one-way digests for secrets kept at rest:
// user passwords and refresh tokens.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type Bcrypt struct {
	cost int
}

func NewBcrypt() *Bcrypt {
	return &Bcrypt{cost: bcrypt.DefaultCost}
}

func (b *Bcrypt) Hash(plaintext string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (b *Bcrypt) Verify(plaintext, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	return err == nil
}
