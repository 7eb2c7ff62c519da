package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir - каталог Docker Secrets.
var SecretsDir = "/run/secrets"

// ReadSecret читает секрет из файла Docker Secrets. Если файла нет,
// используется переменная окружения с тем же именем в верхнем регистре.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(SecretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err == nil {
		secret := strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", filePath)
		}
		return secret, nil
	}

	envName := strings.ToUpper(secretName)
	if value := strings.TrimSpace(os.Getenv(envName)); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("secret %s not found in %s or $%s: %w", secretName, filePath, envName, err)
}

// ReadOptionalSecret возвращает пустую строку, если секрет не задан.
func ReadOptionalSecret(secretName string) string {
	secret, err := ReadSecret(secretName)
	if err != nil {
		return ""
	}
	return secret
}
