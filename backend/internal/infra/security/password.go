/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-22 10:14:03
 * @FilePath: \inventory-app\backend\internal\infra\security\password.go
 * @LastEditTime: 2025-10-22 10:14:09
 */
package security

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword 表示密码为空或仅包含空白。
var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword 使用 bcrypt 对明文密码加盐哈希。
func HashPassword(plain string) (string, error) {
	return HashPasswordWithCost(plain, bcrypt.DefaultCost)
}

// HashPasswordWithCost 允许调用方指定 cost，批量生成演示账号时可用 bcrypt.MinCost。
func HashPasswordWithCost(plain string, cost int) (string, error) {
	if strings.TrimSpace(plain) == "" {
		return "", ErrEmptyPassword
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(out), nil
}

// CheckPassword 校验明文密码是否与哈希匹配。
func CheckPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
