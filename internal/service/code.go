package service

import (
	"crypto/rand"
	"fmt"
)

// joinCodeAlphabet leaves out characters that are easy to misread.
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// JoinCodeLength is the length of generated join codes.
const JoinCodeLength = 6

// NewJoinCode returns a random code such as "K7PQ2M".
func NewJoinCode() (string, error) {
	buf := make([]byte, JoinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}
