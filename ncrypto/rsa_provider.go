// Copyright 2021 Hailiang Zhao <hliangzhao@zju.edu.cn>
// This file is part of the lightChain.
//
// The lightChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The lightChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the lightChain. If not, see <http://www.gnu.org/licenses/>.

package ncrypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
)

const rsaKeyBits = 2048

const cryptoSHA256 = crypto.SHA256

// RSAProvider is the default Provider: RSA-2048 keys serialized with
// PKCS#1 DER, PKCS#1 v1.5 signatures over a SHA-256 digest.
type RSAProvider struct{}

// NewRSAProvider returns the default cryptographic provider.
func NewRSAProvider() *RSAProvider {
	return &RSAProvider{}
}

// GenerateKeyPair generates an RSA-2048 keypair and serializes both halves.
func (RSAProvider) GenerateKeyPair() (PublicKey, PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, nil, err
	}
	pub := x509.MarshalPKCS1PublicKey(&key.PublicKey)
	priv := x509.MarshalPKCS1PrivateKey(key)
	return PublicKey(pub), PrivateKey(priv), nil
}

// Sign produces a PKCS#1 v1.5 signature of digest under priv.
func (RSAProvider) Sign(priv PrivateKey, digest [32]byte) ([]byte, error) {
	key, err := x509.ParsePKCS1PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return rsa.SignPKCS1v15(rand.Reader, key, cryptoSHA256, digest[:])
}

// Verify checks a PKCS#1 v1.5 signature of digest under pub.
func (RSAProvider) Verify(pub PublicKey, digest [32]byte, sig []byte) bool {
	key, err := x509.ParsePKCS1PublicKey(pub)
	if err != nil {
		return false
	}
	return rsa.VerifyPKCS1v15(key, cryptoSHA256, digest[:], sig) == nil
}

// Hash concatenates parts and returns their SHA-256 digest.
func (RSAProvider) Hash(parts ...[]byte) [32]byte {
	return Hash(parts...)
}
