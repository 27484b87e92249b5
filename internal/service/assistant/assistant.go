package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/jwi5433/happy-hour/internal/domain/geo"
	"github.com/jwi5433/happy-hour/internal/domain/venue"
	"github.com/jwi5433/happy-hour/internal/service/deals"
	"github.com/jwi5433/happy-hour/internal/service/relevance"
	"github.com/jwi5433/happy-hour/internal/service/schedule"
)

// DefaultSystemPrompt is the assistant persona for the Austin happy-hour
// guide.
const DefaultSystemPrompt = "You are a knowledgeable Austin guide focused on happy hours. " +
	"Speak in a friendly, conversational tone that's helpful without being overly casual. " +
	"Avoid using expressions like 'howdy' or other regional slang. " +
	"Don't use asterisks or bullet points when sharing recommendations. " +
	"Provide information in a natural conversational flow using complete sentences. " +
	"Keep responses brief and focused on the question asked. " +
	"If asked about specific areas, suggest 2-3 relevant options with approximate price ranges. " +
	"Be informative and approachable without overdoing the personality."

// Config contains assistant client configuration.
type Config struct {
	APIKey       string
	Model        string
	SystemPrompt string
}

// Service answers free-text queries, grounding the model on a curated venue
// subset selected by the relevance ranker.
type Service struct {
	client *openai.Client
	ranker *relevance.Ranker
	cfg    Config
}

// New creates an assistant service.
func New(cfg Config, ranker *relevance.Ranker) *Service {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	return &Service{
		client: openai.NewClient(cfg.APIKey),
		ranker: ranker,
		cfg:    cfg,
	}
}

// Reply answers a query. The venue set is narrowed to assistant context via
// SelectContext and appended to the system prompt as compact facts.
func (s *Service) Reply(ctx context.Context, query string, venues []venue.Venue, ref *geo.Point) (string, error) {
	selected := s.ranker.SelectContext(venues, query, ref, time.Now())

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: s.cfg.SystemPrompt + "\n\n" + contextBlock(selected, ref),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: query,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// contextBlock renders the selected venues as one line each: name, distance
// when a reference point is known, schedule summary, and up to three deals.
func contextBlock(selected []venue.Venue, ref *geo.Point) string {
	if len(selected) == 0 {
		return "No venue data is available right now."
	}

	var b strings.Builder
	b.WriteString("Nearby venues you can recommend:\n")

	for _, v := range selected {
		b.WriteString("- ")
		b.WriteString(v.Name)

		if ref != nil {
			if p, ok := v.Point(); ok {
				fmt.Fprintf(&b, " (%.1f km away)", geo.DistanceKm(*ref, p))
			}
		}

		hours := schedule.Render(v.Schedule)
		b.WriteString("; hours: ")
		b.WriteString(strings.ReplaceAll(hours, "\n", ", "))

		if curated := deals.Curate(v.Deals); len(curated) > 0 {
			b.WriteString("; deals: ")
			for i, d := range curated {
				if i == 3 {
					break
				}
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(d.Name + " " + d.Price)
			}
		}

		b.WriteString("\n")
	}

	return b.String()
}
