package encryption

import (
	"bytes"
	"testing"

	"sitereports/internal/config"
)

func TestTestEncryptor_EncryptDecrypt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "simple text", input: []byte("hello world")},
		{name: "empty", input: []byte{}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := NewTestEncryptor()

			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if !bytes.HasPrefix(encrypted.Bytes(), testHeader) {
				t.Error("encrypted output lacks the test header")
			}

			dc, err := e.Unlock("anything")
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}

			var decrypted bytes.Buffer
			if err := dc.Decrypt(&encrypted, &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestTestEncryptor_Setup(t *testing.T) {
	t.Parallel()
	e := NewTestEncryptor()
	if err := e.Setup("any-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.setupCalled {
		t.Error("Setup() did not record that it was called")
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false, want true")
	}
}

func TestTestEncryptor_WrongPassphrase(t *testing.T) {
	t.Parallel()
	if _, err := NewTestEncryptor().Unlock(WrongPassphrase); err == nil {
		t.Error("Unlock(WrongPassphrase) should return error")
	}
}

func TestTestDecryptionContext_InvalidHeader(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	tests := map[string][]byte{
		"too short": []byte("SR"),
		"wrong":     []byte("NOTENCRYPTED"),
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if err := (&TestDecryptionContext{}).Decrypt(bytes.NewReader(in), &out); err == nil {
				t.Error("Decrypt() expected error")
			}
		})
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.EncryptionConfig
		wantType string
		wantErr  bool
	}{
		{"age", config.EncryptionConfig{Type: "age", PublicKeyPath: "/k.pub", PrivateKeyPath: "/k.key"}, "age", false},
		{"default is age", config.EncryptionConfig{PublicKeyPath: "/k.pub", PrivateKeyPath: "/k.key"}, "age", false},
		{"age without paths", config.EncryptionConfig{Type: "age"}, "", true},
		{"test", config.EncryptionConfig{Type: "test"}, "test", false},
		{"unknown", config.EncryptionConfig{Type: "rot13"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEncryptorFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			switch tt.wantType {
			case "age":
				if _, ok := got.(*AgeEncryptor); !ok {
					t.Errorf("NewEncryptorFromConfig() = %T, want *AgeEncryptor", got)
				}
			case "test":
				if _, ok := got.(*TestEncryptor); !ok {
					t.Errorf("NewEncryptorFromConfig() = %T, want *TestEncryptor", got)
				}
			}
		})
	}
}
