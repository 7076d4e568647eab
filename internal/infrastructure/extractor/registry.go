// Package extractor routes each source to the extractor matching its kind
// and file format.
package extractor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sachinkm/notebook-assistant/internal/core/domain"
	"github.com/sachinkm/notebook-assistant/internal/core/ports"
)

type Registry struct {
	plaintext   ports.TextExtractor
	pdf         ports.TextExtractor
	spreadsheet ports.TextExtractor
	website     ports.TextExtractor
	youtube     ports.TextExtractor
}

func NewRegistry(plaintext, pdf, spreadsheet, website, youtube ports.TextExtractor) *Registry {
	return &Registry{
		plaintext:   plaintext,
		pdf:         pdf,
		spreadsheet: spreadsheet,
		website:     website,
		youtube:     youtube,
	}
}

func (r *Registry) Extract(ctx context.Context, src *domain.Source) ([]domain.ExtractedSegment, error) {
	target, err := r.resolve(src)
	if err != nil {
		return nil, err
	}
	return target.Extract(ctx, src)
}

func (r *Registry) resolve(src *domain.Source) (ports.TextExtractor, error) {
	switch src.Kind {
	case domain.SourceWebsite:
		return r.website, nil
	case domain.SourceYouTube:
		return r.youtube, nil
	case domain.SourceText:
		return r.plaintext, nil
	case domain.SourceFile:
		switch strings.ToLower(filepath.Ext(src.Filename)) {
		case ".pdf":
			return r.pdf, nil
		case ".xlsx", ".xlsm", ".xltx":
			return r.spreadsheet, nil
		case ".txt", ".md", ".csv", "":
			return r.plaintext, nil
		default:
			// Unknown extensions get one chance as UTF-8 text; binary
			// junk fails validation there.
			return r.plaintext, nil
		}
	}
	return nil, fmt.Errorf("no extractor for source kind %q", src.Kind)
}
