// Package digest builds the periodic leaderboard report.
package digest

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chancat/channel-catalog-go/internal/db/models"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Category names one digest section.
type Category string

const (
	CategoryReactions Category = "reactions"
	CategoryViews     Category = "views"
	CategoryForwards  Category = "forwards"
	CategoryGrowth    Category = "growth"
	CategorySmall     Category = "small"
)

// Categories lists the sections in the order they are published.
var Categories = []Category{CategoryReactions, CategoryViews, CategoryForwards, CategoryGrowth, CategorySmall}

// Ranker is the subset of the ranking engine the digest runs.
type Ranker interface {
	ByReactions(ctx context.Context, limit int) ([]models.RankedPost, error)
	ByViews(ctx context.Context, limit int) ([]models.RankedPost, error)
	ByForwards(ctx context.Context, limit int) ([]models.RankedPost, error)
	SmallChannelViews(ctx context.Context, limit int) ([]models.RankedPost, error)
	ByGrowth(ctx context.Context, period string, limit int) ([]models.RankedChannel, error)
}

// Section is one ranked list and its rendered HTML message.
type Section struct {
	Category Category               `json:"category"`
	Heading  string                 `json:"heading"`
	Posts    []models.RankedPost    `json:"posts,omitempty"`
	Channels []models.RankedChannel `json:"channels,omitempty"`
	HTML     string                 `json:"html"`
}

// Empty reports whether the section has no entries.
func (s Section) Empty() bool {
	return len(s.Posts) == 0 && len(s.Channels) == 0
}

// Digest is one generated report.
type Digest struct {
	ID          uuid.UUID `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
}

// Options configures a Generator.
type Options struct {
	// Limit is K for every section.
	Limit int
	// Location is the zone of the date line under each heading.
	Location *time.Location
	// SmallChannelMax appears in the small-channel heading.
	SmallChannelMax int64
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Generator runs each ranking at a fixed K and renders the sections.
type Generator struct {
	ranker Ranker
	opts   Options
	logger *zap.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(ranker Ranker, opts Options, log *zap.Logger) *Generator {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SmallChannelMax <= 0 {
		opts.SmallChannelMax = 3000
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{ranker: ranker, opts: opts, logger: logger.OrNop(log)}
}

// Generate runs all five rankings. An empty ranking renders a "no data yet"
// section; any store failure aborts the digest.
func (g *Generator) Generate(ctx context.Context) (*Digest, error) {
	now := g.opts.Now().In(g.opts.Location)
	dateLine := fmt.Sprintf("%s, %s", now.Weekday(), now.Format("02 January 2006"))
	k := g.opts.Limit

	d := &Digest{ID: uuid.New(), GeneratedAt: now, Sections: make([]Section, 0, len(Categories))}

	postSections := []struct {
		category Category
		heading  string
		icon     string
		fetch    func(context.Context, int) ([]models.RankedPost, error)
	}{
		{CategoryReactions, fmt.Sprintf("Top %d posts by reactions", k), "❤️", g.ranker.ByReactions},
		{CategoryViews, fmt.Sprintf("Top %d posts by views", k), "👁️", g.ranker.ByViews},
		{CategoryForwards, fmt.Sprintf("Top %d posts by forwards", k), "🔄", g.ranker.ByForwards},
	}

	for _, ps := range postSections {
		posts, err := ps.fetch(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("digest %s: %w", ps.category, err)
		}
		d.Sections = append(d.Sections, Section{
			Category: ps.category,
			Heading:  ps.heading,
			Posts:    posts,
			HTML:     renderPosts(ps.heading, dateLine, ps.icon, posts),
		})
	}

	channels, err := g.ranker.ByGrowth(ctx, string(models.Period30d), k)
	if err != nil {
		return nil, fmt.Errorf("digest %s: %w", CategoryGrowth, err)
	}
	growthHeading := fmt.Sprintf("Top %d channels by growth (30 days)", k)
	d.Sections = append(d.Sections, Section{
		Category: CategoryGrowth,
		Heading:  growthHeading,
		Channels: channels,
		HTML:     renderChannels(growthHeading, dateLine, channels),
	})

	small, err := g.ranker.SmallChannelViews(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("digest %s: %w", CategorySmall, err)
	}
	smallHeading := fmt.Sprintf("Top %d posts of small channels (<%d subscribers)", k, g.opts.SmallChannelMax)
	d.Sections = append(d.Sections, Section{
		Category: CategorySmall,
		Heading:  smallHeading,
		Posts:    small,
		HTML:     renderPosts(smallHeading, dateLine, "👁️", small),
	})

	g.logger.Info("digest generated",
		zap.String("digest_id", d.ID.String()),
		zap.Int("posts_reactions", len(d.Sections[0].Posts)),
		zap.Int("channels_growth", len(channels)),
	)
	return d, nil
}

const noData = "<i>No data yet.</i>"

func renderHeader(b *strings.Builder, heading, dateLine string) {
	fmt.Fprintf(b, "📊 <b>%s</b>\n%s\n\n", html.EscapeString(heading), html.EscapeString(dateLine))
}

func renderPosts(heading, dateLine, icon string, posts []models.RankedPost) string {
	var b strings.Builder
	renderHeader(&b, heading, dateLine)
	if len(posts) == 0 {
		b.WriteString(noData)
		return b.String()
	}

	for i, p := range posts {
		username := p.Username()
		fmt.Fprintf(&b, "%d. <a href=\"https://t.me/%s\">%s</a> | %s %s | <a href=\"https://t.me/%s/%d\">POST</a>\n",
			i+1, username, html.EscapeString(p.ChannelTitle), icon, FormatNumber(p.Value), username, p.MessageID)
		fmt.Fprintf(&b, "   📝 <i>%s</i>\n\n", html.EscapeString(SmartTitle(p.Text, 15, 100)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderChannels(heading, dateLine string, channels []models.RankedChannel) string {
	var b strings.Builder
	renderHeader(&b, heading, dateLine)
	if len(channels) == 0 {
		b.WriteString(noData)
		return b.String()
	}

	for i, c := range channels {
		fmt.Fprintf(&b, "%d. <a href=\"https://t.me/%s\">%s</a>\n", i+1, c.Username(), html.EscapeString(c.Title))
		fmt.Fprintf(&b, "   📈 %s | 👥 %s subscribers\n\n", FormatGrowth(c.Growth), FormatNumber(c.Subscribers))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Publisher delivers a digest to its audiences.
type Publisher interface {
	Broadcast(ctx context.Context, d *Digest) error
}

// Sender generates a digest and hands it to the publisher.
type Sender struct {
	generator *Generator
	publisher Publisher
}

// NewSender creates a Sender.
func NewSender(generator *Generator, publisher Publisher) *Sender {
	return &Sender{generator: generator, publisher: publisher}
}

// Send generates and publishes one digest.
func (s *Sender) Send(ctx context.Context) (*Digest, error) {
	d, err := s.generator.Generate(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.publisher.Broadcast(ctx, d); err != nil {
		return d, fmt.Errorf("publish digest %s: %w", d.ID, err)
	}
	return d, nil
}
