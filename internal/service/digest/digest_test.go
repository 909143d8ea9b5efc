package digest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chancat/channel-catalog-go/internal/db/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRanker struct {
	reactions, views, forwards, small []models.RankedPost
	growth                            []models.RankedChannel
	period                            string
	limits                            []int
	err                               error
	failOn                            Category
}

func (s *stubRanker) fail(c Category) error {
	if s.failOn == c {
		return s.err
	}
	return nil
}

func (s *stubRanker) ByReactions(_ context.Context, limit int) ([]models.RankedPost, error) {
	s.limits = append(s.limits, limit)
	return s.reactions, s.fail(CategoryReactions)
}

func (s *stubRanker) ByViews(_ context.Context, limit int) ([]models.RankedPost, error) {
	s.limits = append(s.limits, limit)
	return s.views, s.fail(CategoryViews)
}

func (s *stubRanker) ByForwards(_ context.Context, limit int) ([]models.RankedPost, error) {
	s.limits = append(s.limits, limit)
	return s.forwards, s.fail(CategoryForwards)
}

func (s *stubRanker) SmallChannelViews(_ context.Context, limit int) ([]models.RankedPost, error) {
	s.limits = append(s.limits, limit)
	return s.small, s.fail(CategorySmall)
}

func (s *stubRanker) ByGrowth(_ context.Context, period string, limit int) ([]models.RankedChannel, error) {
	s.period = period
	s.limits = append(s.limits, limit)
	return s.growth, s.fail(CategoryGrowth)
}

type recordingPublisher struct {
	got []*Digest
	err error
}

func (p *recordingPublisher) Broadcast(_ context.Context, d *Digest) error {
	p.got = append(p.got, d)
	return p.err
}

var fixedNow = func() time.Time { return time.Date(2025, 3, 14, 22, 30, 0, 0, time.UTC) }

func TestGenerate_SectionsInOrder(t *testing.T) {
	ranker := &stubRanker{
		reactions: []models.RankedPost{{Handle: "@golang_news", ChannelTitle: "Go <News>", MessageID: 42, Text: "Release notes", Value: 1500}},
		growth:    []models.RankedChannel{{Handle: "@rising", Title: "Rising", Subscribers: 2_000_000, Growth: 12.5}},
	}
	vlad, err := time.LoadLocation("Asia/Vladivostok")
	require.NoError(t, err)

	gen := NewGenerator(ranker, Options{Limit: 100, Location: vlad, Now: fixedNow}, zap.NewNop())
	d, err := gen.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, d.Sections, 5)
	for i, c := range Categories {
		assert.Equal(t, c, d.Sections[i].Category)
	}
	assert.Equal(t, []int{100, 100, 100, 100, 100}, ranker.limits)
	assert.Equal(t, "30d", ranker.period)
	assert.NotEmpty(t, d.ID.String())

	// 22:30 UTC on Friday is Saturday morning in Vladivostok.
	reactions := d.Sections[0].HTML
	assert.Contains(t, reactions, "📊 <b>Top 100 posts by reactions</b>\nSaturday, 15 March 2025")
	assert.Contains(t, reactions, `1. <a href="https://t.me/golang_news">Go &lt;News&gt;</a> | ❤️ 1.5K | <a href="https://t.me/golang_news/42">POST</a>`)
	assert.Contains(t, reactions, "📝 <i>Release notes</i>")

	growth := d.Sections[3].HTML
	assert.Contains(t, growth, `1. <a href="https://t.me/rising">Rising</a>`)
	assert.Contains(t, growth, "📈 +12.5% | 👥 2M subscribers")

	assert.True(t, d.Sections[1].Empty())
	assert.Contains(t, d.Sections[1].HTML, noData)
	assert.Contains(t, d.Sections[4].Heading, "<3000 subscribers")
}

func TestGenerate_StoreFailureAborts(t *testing.T) {
	ranker := &stubRanker{err: errors.New("db down"), failOn: CategoryGrowth}
	gen := NewGenerator(ranker, Options{Now: fixedNow}, nil)

	d, err := gen.Generate(context.Background())
	assert.Nil(t, d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "growth")
}

func TestSender_Send(t *testing.T) {
	t.Run("publishes generated digest", func(t *testing.T) {
		pub := &recordingPublisher{}
		s := NewSender(NewGenerator(&stubRanker{}, Options{Now: fixedNow}, nil), pub)

		d, err := s.Send(context.Background())
		require.NoError(t, err)
		require.Len(t, pub.got, 1)
		assert.Equal(t, d.ID, pub.got[0].ID)
	})

	t.Run("publish error is wrapped", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("broker gone")}
		s := NewSender(NewGenerator(&stubRanker{}, Options{Now: fixedNow}, nil), pub)

		d, err := s.Send(context.Background())
		require.Error(t, err)
		assert.NotNil(t, d)
		assert.Contains(t, err.Error(), "broker gone")
	})

	t.Run("generation error skips publish", func(t *testing.T) {
		pub := &recordingPublisher{}
		ranker := &stubRanker{err: errors.New("boom"), failOn: CategoryReactions}
		s := NewSender(NewGenerator(ranker, Options{Now: fixedNow}, nil), pub)

		_, err := s.Send(context.Background())
		require.Error(t, err)
		assert.Empty(t, pub.got)
	})
}

func TestSmartTitle(t *testing.T) {
	long := strings.Repeat("abcdefghij", 12)
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", NoText},
		{"whitespace only", "  \n\t ", NoText},
		{"collapses whitespace", "hello\n\n  world", "hello world"},
		{"word limit", "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen",
			"one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen..."},
		{"char limit", long, long[:97] + "..."},
		{"cyrillic counted in runes", strings.Repeat("я", 101), strings.Repeat("я", 97) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SmartTitle(tt.in, 15, 100))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1K"},
		{1500, "1.5K"},
		{999_999, "1000K"},
		{1_000_000, "1M"},
		{2_340_000, "2.3M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%d)", tt.in)
	}
}

func TestFormatGrowth(t *testing.T) {
	assert.Equal(t, "+12.5%", FormatGrowth(12.5))
	assert.Equal(t, "+0.0%", FormatGrowth(0))
	assert.Equal(t, "-3.2%", FormatGrowth(-3.2))
}
