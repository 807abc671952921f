package util

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName strips directory components and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "\\", "/")
	if idx := strings.LastIndexByte(s, '/'); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return "", ErrInvalidFileName
	}
	return s, nil
}

// UniqueFileName returns "<stem>_<uuid><ext>" for an already sanitized name.
func UniqueFileName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem = "file"
	}
	return stem + "_" + uuid.NewString() + strings.ToLower(ext)
}
