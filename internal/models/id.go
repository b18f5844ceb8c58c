package models

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"regexp"
	"time"
)

var idRe = regexp.MustCompile(`^[0-9a-f]{24}$`)

// NewID generates a 24-character hex entity id: 4 bytes of unix time
// followed by 8 random bytes. Time-prefixing keeps ids roughly sortable
// by creation, which the default index ordering benefits from.
func NewID() string {
	var raw [12]byte
	binary.BigEndian.PutUint32(raw[:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(raw[4:]); err != nil {
		// crypto/rand failing is unrecoverable for id generation
		panic(err)
	}
	return hex.EncodeToString(raw[:])
}

// ValidID reports whether s has the canonical 24-hex id shape.
// Anything else is a validation error, not a lookup miss.
func ValidID(s string) bool {
	return idRe.MatchString(s)
}
