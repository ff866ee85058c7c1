package api

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

type reportDownload struct {
	zipPath   string
	runDir    string
	date      string
	expiresAt time.Time
}

type downloadStore struct {
	mu    sync.Mutex
	items map[string]reportDownload
}

func newDownloadStore() *downloadStore {
	return &downloadStore{
		items: make(map[string]reportDownload),
	}
}

func (s *downloadStore) put(zipPath, runDir, date string, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	token = newRandomToken(24)
	s.items[token] = reportDownload{
		zipPath:   zipPath,
		runDir:    runDir,
		date:      date,
		expiresAt: time.Now().Add(ttl),
	}
	return token
}

func (s *downloadStore) get(token string) (reportDownload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	v, ok := s.items[token]
	if !ok {
		return reportDownload{}, false
	}
	if time.Now().After(v.expiresAt) {
		delete(s.items, token)
		return reportDownload{}, false
	}
	return v, true
}

func (s *downloadStore) delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

func (s *downloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
