package api

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

type exportDownload struct {
	filePath  string
	filename  string
	expiresAt time.Time
}

type exportDownloadStore struct {
	mu    sync.Mutex
	items map[string]exportDownload
}

func newExportDownloadStore() *exportDownloadStore {
	return &exportDownloadStore{
		items: make(map[string]exportDownload),
	}
}

func (s *exportDownloadStore) put(filePath, filename string, ttl time.Duration) (token string) {
	s.mu.Lock()
	expired := s.purgeExpiredLocked(time.Now())
	token = uuid.NewString()
	s.items[token] = exportDownload{
		filePath:  filePath,
		filename:  filename,
		expiresAt: time.Now().Add(ttl),
	}
	s.mu.Unlock()

	removeFiles(expired)
	return token
}

func (s *exportDownloadStore) get(token string) (exportDownload, bool) {
	s.mu.Lock()
	expired := s.purgeExpiredLocked(time.Now())
	v, ok := s.items[token]
	s.mu.Unlock()

	removeFiles(expired)
	if !ok {
		return exportDownload{}, false
	}
	return v, true
}

func (s *exportDownloadStore) delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

// purgeExpiredLocked 移除过期 token，返回其导出文件路径
func (s *exportDownloadStore) purgeExpiredLocked(now time.Time) []string {
	var expired []string
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
			expired = append(expired, v.filePath)
		}
	}
	return expired
}

func removeFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
