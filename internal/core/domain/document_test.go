package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/quill/internal/core/domain"
)

func TestCompileInfo_ChangedPages(t *testing.T) {
	doc := &domain.Document{Pages: []*domain.Frame{sampleFrame(1), sampleFrame(2)}}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	info := domain.NewCompileInfo("main.qd", doc, at)
	assert.Equal(t, "main.qd", info.Document)
	assert.Len(t, info.Pages, 2)
	assert.Equal(t, sampleFrame(1).Fingerprint().String(), info.Pages[0])

	assert.Equal(t, []int{1, 2}, domain.ChangedPages(nil, info))
	assert.Empty(t, domain.ChangedPages(&info, info))

	edited := &domain.Document{Pages: []*domain.Frame{sampleFrame(1), sampleFrame(3), sampleFrame(4)}}
	assert.Equal(t, []int{2, 3}, domain.ChangedPages(&info, domain.NewCompileInfo("main.qd", edited, at)))
}
