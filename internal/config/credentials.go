package config

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const credentialsFile = "credentials.json"

// Credential entries are namespaced by what they unlock.
const (
	serverKeyPrefix     = "server:"
	datasourceKeyPrefix = "datasource:"
)

// ErrInvalidCredentialKey is returned for keys outside the server: and
// datasource: namespaces.
var ErrInvalidCredentialKey = errors.New("invalid credential key")

// localKey is the fixed key credentials.json is encrypted with.
var localKey = []byte{
	186, 187, 74, 159, 119, 74, 184, 83, 201, 108, 45, 101, 61, 254, 84, 74,
}

// ServerCredentialKey is the credentials entry of a server profile.
func ServerCredentialKey(name string) string {
	return serverKeyPrefix + name
}

// DatasourceCredentialKey is the credentials entry of a local datasource.
func DatasourceCredentialKey(name string) string {
	return datasourceKeyPrefix + name
}

// ValidateCredentialKey checks that key is server:<name> or
// datasource:<name> with a non-blank name.
func ValidateCredentialKey(key string) error {
	for _, prefix := range []string{serverKeyPrefix, datasourceKeyPrefix} {
		if name, ok := strings.CutPrefix(key, prefix); ok {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("%w %q: missing name", ErrInvalidCredentialKey, key)
			}
			return nil
		}
	}
	return fmt.Errorf("%w %q: want %sNAME or %sNAME", ErrInvalidCredentialKey, key, serverKeyPrefix, datasourceKeyPrefix)
}

// Credentials represents the credentials.json structure
type Credentials struct {
	Version     int                        `json:"version"`
	Credentials map[string]CredentialEntry `json:"credentials"`
}

// CredentialEntry is the user and password stored under one key.
type CredentialEntry struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoadCredentials decrypts ~/.modelpub/credentials.json. A missing file is an
// empty store.
func LoadCredentials() (*Credentials, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	credentials := &Credentials{Version: 1, Credentials: map[string]CredentialEntry{}}
	data, err := os.ReadFile(filepath.Join(configDir, credentialsFile))
	if os.IsNotExist(err) {
		return credentials, nil
	}
	if err != nil {
		return nil, err
	}

	plain, err := DecryptCredentials(data)
	if err != nil {
		return nil, fmt.Errorf("decrypting %s: %w", credentialsFile, err)
	}
	if err := json.Unmarshal(plain, credentials); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", credentialsFile, err)
	}
	if credentials.Credentials == nil {
		credentials.Credentials = map[string]CredentialEntry{}
	}
	return credentials, nil
}

// SaveCredentials encrypts and atomically replaces ~/.modelpub/credentials.json.
func SaveCredentials(credentials *Credentials) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	data, err := json.Marshal(credentials)
	if err != nil {
		return err
	}
	encrypted, err := EncryptCredentials(data)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(configDir, credentialsFile), encrypted, 0600)
}

// EncryptCredentials encrypts data with AES/CBC and PKCS#7 padding. The
// random IV is prepended to the ciphertext.
func EncryptCredentials(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(localKey)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(data, aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(padded))
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)
	return out, nil
}

// DecryptCredentials reverses EncryptCredentials.
func DecryptCredentials(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(localKey)
	if err != nil {
		return nil, err
	}
	if len(data) < 2*aes.BlockSize || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext of %d bytes is not an IV plus whole blocks", len(data))
	}

	plain := make([]byte, len(data)-aes.BlockSize)
	cipher.NewCBCDecrypter(block, data[:aes.BlockSize]).CryptBlocks(plain, data[aes.BlockSize:])
	return pkcs7Unpad(plain, aes.BlockSize)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded plaintext length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || !bytes.HasSuffix(data, bytes.Repeat([]byte{byte(n)}, n)) {
		return nil, errors.New("invalid padding")
	}
	return data[:len(data)-n], nil
}

// GetCredentials returns the user and password stored under key. A missing
// entry yields empty strings and no error.
func GetCredentials(key string) (string, string, error) {
	if err := ValidateCredentialKey(key); err != nil {
		return "", "", err
	}
	credentials, err := LoadCredentials()
	if err != nil {
		return "", "", err
	}
	entry := credentials.Credentials[key]
	return entry.Username, entry.Password, nil
}

// SetCredentials stores username and password under key.
func SetCredentials(key, username, password string) error {
	if err := ValidateCredentialKey(key); err != nil {
		return err
	}
	credentials, err := LoadCredentials()
	if err != nil {
		return err
	}
	credentials.Credentials[key] = CredentialEntry{Username: username, Password: password}
	return SaveCredentials(credentials)
}

// DeleteCredentials removes the entry stored under key, if any.
func DeleteCredentials(key string) error {
	if err := ValidateCredentialKey(key); err != nil {
		return err
	}
	credentials, err := LoadCredentials()
	if err != nil {
		return err
	}
	if _, exists := credentials.Credentials[key]; !exists {
		return nil
	}
	delete(credentials.Credentials, key)
	return SaveCredentials(credentials)
}
