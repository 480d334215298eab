package game

import "math/rand"

// Room codes are read over voice chat and typed on phones, so the alphabet
// drops the visually confusable 0/O and 1-lookalike I. 33^6 ≈ 1.3 billion
// combinations.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ123456789"
const codeLength = 6

func newRoomCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(code)
}
