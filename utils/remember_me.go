package utils

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

// RememberedCredentials represents the stored session for "Remember Me"
type RememberedCredentials struct {
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	UserID     string    `json:"userId"`
	ExpiresAt  time.Time `json:"expiresAt"`
	DeviceInfo string    `json:"deviceInfo"`
}

// GenerateRememberMeToken generates a secure token for "Remember Me"
func GenerateRememberMeToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func encryptionKey() []byte {
	key := os.Getenv("REMEMBER_ME_ENCRYPTION_KEY")
	if key == "" {
		// Fallback key, override in production
		key = "zara-remember-me-key-32-bytes-xx"
	}
	if len(key) < 32 {
		key = key + "00000000000000000000000000000000"
	}
	return []byte(key[:32])
}

// EncryptCredentials encrypts the credentials before storing in Redis
func EncryptCredentials(credentials RememberedCredentials) (string, error) {
	jsonData, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, jsonData, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptCredentials decrypts the credentials from Redis
func DecryptCredentials(encryptedData string) (*RememberedCredentials, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, err
	}

	var credentials RememberedCredentials
	if err := json.Unmarshal(plaintext, &credentials); err != nil {
		return nil, err
	}

	return &credentials, nil
}

// StoreRememberedCredentials stores encrypted credentials in Redis
func StoreRememberedCredentials(redisClient *redis.Client, token string, credentials RememberedCredentials, expiration time.Duration) error {
	if redisClient == nil {
		return fmt.Errorf("Redis client not available")
	}

	ctx := context.Background()

	encryptedData, err := EncryptCredentials(credentials)
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	key := fmt.Sprintf("remember_me:%s", token)
	if err := redisClient.Set(ctx, key, encryptedData, expiration).Err(); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}

	return nil
}

// RetrieveRememberedCredentials retrieves and decrypts credentials from Redis
func RetrieveRememberedCredentials(redisClient *redis.Client, token string) (*RememberedCredentials, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("Redis client not available")
	}

	ctx := context.Background()

	key := fmt.Sprintf("remember_me:%s", token)
	encryptedData, err := redisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("remember me token not found or expired")
		}
		return nil, fmt.Errorf("Redis error: %w", err)
	}

	credentials, err := DecryptCredentials(encryptedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	if time.Now().After(credentials.ExpiresAt) {
		redisClient.Del(ctx, key)
		return nil, fmt.Errorf("remember me token expired")
	}

	return credentials, nil
}

// RemoveRememberedCredentials removes the remembered credentials from Redis
func RemoveRememberedCredentials(redisClient *redis.Client, token string) error {
	if redisClient == nil {
		return fmt.Errorf("Redis client not available")
	}

	ctx := context.Background()
	key := fmt.Sprintf("remember_me:%s", token)

	if err := redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to remove from Redis: %w", err)
	}

	return nil
}

// CleanupExpiredRememberMeTokens removes all expired remember me tokens
func CleanupExpiredRememberMeTokens(redisClient *redis.Client) error {
	if redisClient == nil {
		return fmt.Errorf("Redis client not available")
	}

	ctx := context.Background()

	keys, err := redisClient.Keys(ctx, "remember_me:*").Result()
	if err != nil {
		return fmt.Errorf("failed to get keys: %w", err)
	}

	for _, key := range keys {
		encryptedData, err := redisClient.Get(ctx, key).Result()
		if err != nil {
			continue
		}

		credentials, err := DecryptCredentials(encryptedData)
		if err != nil {
			// Remove invalid data
			redisClient.Del(ctx, key)
			continue
		}

		if time.Now().After(credentials.ExpiresAt) {
			redisClient.Del(ctx, key)
		}
	}

	return nil
}
