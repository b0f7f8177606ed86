package subscription

import (
	"crypto/rand"
)

// TokenLength は確認トークンの文字数。
const TokenLength = 25

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// maxUnbiasedByte は剰余で偏りが出ないバイト値の上限（62*4）。
const maxUnbiasedByte = 248

// TokenGenerator は確認トークンの生成インターフェース。
type TokenGenerator interface {
	Generate() string
}

// RandomTokenGenerator は暗号論的乱数から英数字のトークンを生成する。
type RandomTokenGenerator struct{}

// Generate は[A-Za-z0-9]から一様に選んだTokenLength文字のトークンを返す。
func (RandomTokenGenerator) Generate() string {
	token := make([]byte, 0, TokenLength)
	buf := make([]byte, TokenLength*2)

	for len(token) < TokenLength {
		// crypto/rand.Readは失敗しない
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if b >= maxUnbiasedByte {
				continue
			}
			token = append(token, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(token) == TokenLength {
				break
			}
		}
	}

	return string(token)
}

var _ TokenGenerator = RandomTokenGenerator{}
