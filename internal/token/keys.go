package token

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// keyGenInstructions は鍵ファイルが見つからない場合にオペレーター向けに表示する手順です。
const keyGenInstructions = `generate an RSA keypair first:
  openssl genrsa -des3 -out jwt.pem -passout pass:foobar 2048
  openssl rsa -in jwt.pem -outform PEM -pubout -out jwt_pub.pem -passin pass:foobar
  openssl rsa -in jwt.pem -outform PEM -out jwt_priv.pem -passin pass:foobar
  rm -f jwt.pem`

// LoadKeys は署名用の秘密鍵と検証用の公開鍵をPEMファイルから読み込みます。
// ファイルが存在しない場合は再生成手順を含むエラーを返します（起動時の致命エラー）。
func LoadKeys(privatePath, publicPath string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read private key %s: %w\n%s", privatePath, err, keyGenInstructions)
	}
	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read public key %s: %w\n%s", publicPath, err, keyGenInstructions)
	}

	privateKey, err := parsePrivateKey(privatePEM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse private key %s: %w", privatePath, err)
	}
	publicKey, err := parsePublicKey(publicPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse public key %s: %w", publicPath, err)
	}

	return privateKey, publicKey, nil
}

func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA private key")
	}
	return key, nil
}

func parsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return key, nil
}
