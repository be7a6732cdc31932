/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-20 10:05:48
 * @FilePath: \inventory-app\backend\internal\config\env_loader.go
 * @LastEditTime: 2025-10-20 10:05:48
 */
package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

var (
	envOnce     sync.Once
	envOnceLock sync.Mutex
	skipEnvLoad bool
	loadedFiles []string
)

// LoadEnvFiles 只执行一次 .env 文件加载。
// 优先级：.env.local > .env.<APP_MODE> > .env，后加载的文件不会覆盖先加载的值。
func LoadEnvFiles() {
	envOnceLock.Lock()
	skip := skipEnvLoad
	envOnceLock.Unlock()
	if skip || os.Getenv("CONFIG_SKIP_ENV_LOAD") == "1" {
		return
	}

	envOnce.Do(func() {
		for _, name := range candidateEnvFiles() {
			path, ok := findEnvFile(name)
			if !ok {
				continue
			}
			if err := godotenv.Load(path); err != nil {
				log.Printf("[config] load %s failed: %v", path, err)
				continue
			}
			loadedFiles = append(loadedFiles, path)
			log.Printf("[config] loaded environment file: %s", path)
		}
	})
}

// LoadedFiles 返回已加载的 env 文件路径，供启动日志输出。
func LoadedFiles() []string {
	return append([]string(nil), loadedFiles...)
}

// SetEnvFileLoadingForTest 切换 env 文件的自动加载，仅供测试使用。
func SetEnvFileLoadingForTest(enabled bool) {
	envOnceLock.Lock()
	defer envOnceLock.Unlock()

	skipEnvLoad = !enabled
	envOnce = sync.Once{}
	loadedFiles = nil
}

func candidateEnvFiles() []string {
	names := []string{".env.local"}
	if mode := strings.ToLower(strings.TrimSpace(os.Getenv("APP_MODE"))); mode != "" {
		names = append(names, ".env."+mode)
	}
	return append(names, ".env")
}

// findEnvFile 从当前目录逐级向上查找 env 文件。
func findEnvFile(name string) (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
