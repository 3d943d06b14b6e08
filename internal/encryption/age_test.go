package encryption

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age/armor"

	"punch-go/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	return NewAgeEncryptor(config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "keys", "punch.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "punch.key"),
	})
}

func TestAgeEncryptor_Setup(t *testing.T) {
	t.Parallel()

	t.Run("configures keys", func(t *testing.T) {
		t.Parallel()
		e := newTestAgeEncryptor(t)
		if e.IsConfigured() {
			t.Fatal("IsConfigured() = true before Setup")
		}
		if err := e.Setup("test-passphrase"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if !e.IsConfigured() {
			t.Error("IsConfigured() = false after Setup")
		}
	})

	t.Run("refuses to replace existing keys", func(t *testing.T) {
		t.Parallel()
		e := newTestAgeEncryptor(t)
		if err := e.Setup("first"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if err := e.Setup("second"); !errors.Is(err, ErrAlreadyConfigured) {
			t.Errorf("second Setup() error = %v, want ErrAlreadyConfigured", err)
		}
		if _, err := e.Unlock("first"); err != nil {
			t.Errorf("original passphrase no longer unlocks: %v", err)
		}
	})

	t.Run("rejects empty passphrase", func(t *testing.T) {
		t.Parallel()
		e := newTestAgeEncryptor(t)
		if err := e.Setup(""); err == nil {
			t.Error("Setup(\"\") expected error")
		}
		if e.IsConfigured() {
			t.Error("failed Setup left keys behind")
		}
	})
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "csv timesheet", input: []byte("date,worked\n2024-03-04,8h 00m\n")},
		{name: "empty", input: []byte{}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := newTestAgeEncryptor(t)
			if err := e.Setup("test-passphrase"); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}

			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if !strings.HasPrefix(encrypted.String(), armor.Header) {
				t.Errorf("ciphertext is not armored: %q", encrypted.String()[:20])
			}

			ctx, err := e.Unlock("test-passphrase")
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}
			var decrypted bytes.Buffer
			if err := ctx.Decrypt(&encrypted, &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_Errors(t *testing.T) {
	t.Parallel()

	t.Run("wrong passphrase", func(t *testing.T) {
		t.Parallel()
		e := newTestAgeEncryptor(t)
		if err := e.Setup("correct-passphrase"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if _, err := e.Unlock("wrong-passphrase"); err == nil {
			t.Error("Unlock() with wrong passphrase should return error")
		}
	})

	t.Run("encrypt before setup", func(t *testing.T) {
		t.Parallel()
		e := newTestAgeEncryptor(t)
		if err := e.Encrypt(strings.NewReader("data"), &bytes.Buffer{}); err == nil {
			t.Error("Encrypt() before Setup should return error")
		}
	})

	t.Run("unlock before setup", func(t *testing.T) {
		t.Parallel()
		e := newTestAgeEncryptor(t)
		if _, err := e.Unlock("passphrase"); err == nil {
			t.Error("Unlock() before Setup should return error")
		}
	})

	t.Run("decrypt garbage", func(t *testing.T) {
		t.Parallel()
		e := newTestAgeEncryptor(t)
		e.Setup("p")
		ctx, err := e.Unlock("p")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		if err := ctx.Decrypt(strings.NewReader("not age"), &bytes.Buffer{}); err == nil {
			t.Error("Decrypt() of garbage should return error")
		}
	})
}

func TestTestEncryptor(t *testing.T) {
	t.Parallel()

	t.Run("round trips and marks output", func(t *testing.T) {
		e := NewTestEncryptor()
		var encrypted bytes.Buffer
		if err := e.Encrypt(strings.NewReader("hello"), &encrypted); err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		if !bytes.HasPrefix(encrypted.Bytes(), testHeader) {
			t.Error("encrypted output does not start with test header")
		}

		ctx, _ := e.Unlock("")
		var out bytes.Buffer
		if err := ctx.Decrypt(&encrypted, &out); err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if out.String() != "hello" {
			t.Errorf("Decrypt() = %q, want hello", out.String())
		}
	})

	t.Run("checks passphrase after setup", func(t *testing.T) {
		e := NewTestEncryptor()
		e.Setup("secret")
		if _, err := e.Unlock("guess"); err == nil {
			t.Error("Unlock() with wrong passphrase should return error")
		}
		if _, err := e.Unlock("secret"); err != nil {
			t.Errorf("Unlock() error = %v", err)
		}
	})

	t.Run("rejects data without header", func(t *testing.T) {
		ctx := &TestDecryptionContext{}
		if err := ctx.Decrypt(strings.NewReader("plaintext!"), &bytes.Buffer{}); err == nil {
			t.Error("Decrypt() expected error for missing header")
		}
	})
}

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		want    string
		wantErr bool
	}{
		{name: "age by default", cfg: config.EncryptionConfig{PublicKeyPath: "a.pub", PrivateKeyPath: "a.key"}, want: "*encryption.AgeEncryptor"},
		{name: "test", cfg: config.EncryptionConfig{Type: "test"}, want: "*encryption.TestEncryptor"},
		{name: "age without key paths", cfg: config.EncryptionConfig{Type: "age"}, wantErr: true},
		{name: "unknown", cfg: config.EncryptionConfig{Type: "rot13"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEncryptorFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if typ := typeName(got); typ != tt.want {
				t.Errorf("NewEncryptorFromConfig() = %s, want %s", typ, tt.want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *AgeEncryptor:
		return "*encryption.AgeEncryptor"
	case *TestEncryptor:
		return "*encryption.TestEncryptor"
	default:
		return "unknown"
	}
}
