// Package translation serves the widget's UI dictionaries. It never touches
// session state.
package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/unifiedui/handoff-service/internal/core/cache"
	"github.com/unifiedui/handoff-service/internal/domain/errors"
)

var languagePattern = regexp.MustCompile(`^[a-z]{2}(-[A-Za-z]{2})?$`)

// Service returns the key to string mapping for a language.
type Service interface {
	GetDictionary(ctx context.Context, lang string) (map[string]string, error)
}

// FileServiceConfig configures a FileService.
type FileServiceConfig struct {
	// Dir holds one <lang>.yaml, <lang>.yml or <lang>.json file per language.
	Dir string
	// Fallback is served when the requested language has no file.
	Fallback string
	// Cache is optional.
	Cache    cache.Client
	CacheTTL time.Duration
}

// FileService loads dictionaries from disk and caches them.
type FileService struct {
	dir      string
	fallback string
	cache    cache.Client
	ttl      time.Duration
}

var _ Service = (*FileService)(nil)

// NewFileService creates a new file-backed translation service.
func NewFileService(cfg *FileServiceConfig) (*FileService, error) {
	if cfg == nil || cfg.Dir == "" {
		return nil, fmt.Errorf("dictionary directory is required")
	}
	if cfg.Fallback != "" && !languagePattern.MatchString(cfg.Fallback) {
		return nil, fmt.Errorf("invalid fallback language %q", cfg.Fallback)
	}
	return &FileService{
		dir:      cfg.Dir,
		fallback: cfg.Fallback,
		cache:    cfg.Cache,
		ttl:      cfg.CacheTTL,
	}, nil
}

// CacheKey returns the cache key of a language's dictionary.
func CacheKey(lang string) string {
	return "i18n:" + lang
}

// GetDictionary returns the dictionary of lang, or of the fallback language
// when lang has none.
func (s *FileService) GetDictionary(ctx context.Context, lang string) (map[string]string, error) {
	if !ValidLanguage(lang) {
		return nil, errors.NewValidationError("invalid language code", lang)
	}

	dict, err := s.lookup(ctx, lang)
	if err != nil {
		return nil, err
	}
	if dict != nil {
		return dict, nil
	}

	if s.fallback != "" && s.fallback != lang {
		dict, err = s.lookup(ctx, s.fallback)
		if err != nil {
			return nil, err
		}
		if dict != nil {
			return dict, nil
		}
	}
	return nil, errors.NewNotFoundError("dictionary", lang)
}

func (s *FileService) lookup(ctx context.Context, lang string) (map[string]string, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, CacheKey(lang))
		if err != nil {
			log.Warn().Err(err).Str("language", lang).Msg("dictionary cache read failed")
		} else if data != nil {
			var dict map[string]string
			if err := json.Unmarshal(data, &dict); err == nil {
				return dict, nil
			}
		}
	}

	dict, err := s.load(lang)
	if err != nil || dict == nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(dict); err == nil {
			if err := s.cache.Set(ctx, CacheKey(lang), data, s.ttl); err != nil {
				log.Warn().Err(err).Str("language", lang).Msg("dictionary cache write failed")
			}
		}
	}
	return dict, nil
}

// load reads the first existing dictionary file. It returns nil, nil when
// there is none.
func (s *FileService) load(lang string) (map[string]string, error) {
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(s.dir, lang+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.NewInternalError("failed to read dictionary", err)
		}

		// JSON is a subset of YAML.
		dict := make(map[string]string)
		if err := yaml.Unmarshal(data, &dict); err != nil {
			return nil, errors.NewInternalError(fmt.Sprintf("failed to parse dictionary %s", filepath.Base(path)), err)
		}
		return dict, nil
	}
	return nil, nil
}

// ValidLanguage reports whether lang is a well-formed language code such as
// "en" or "pt-BR".
func ValidLanguage(lang string) bool {
	return languagePattern.MatchString(lang)
}
