package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/ekoyudhi/kamusbot/core/logger"
)

const (
	greetingTemplate = "Halo %s! Ini Line Bot untuk pencarian kata pada Kamus Besar Bahasa Indonesia.\nKetik \"mulai\" untuk memulai pencarian."
	promptText       = "Silakan ketik kata yang ingin dicari."
	unrecognizedText = "Perintah tidak dimengerti.\nKetik \"mulai\" untuk memulai pencarian."

	cardTitle      = "Line Bot KBBI"
	cardQueryLabel = "Kata yang dicari :"
	cardAltText    = "Hasil pencarian KBBI"
	cardButtonText = "Cari Kata Lain"
	cardHeroImage  = "https://kantorbahasagorontalo.kemdikbud.go.id/wp-content/uploads/2020/02/KBBI.png"

	fallbackDisplayName = "Kawan"
)

// ProfileFetcher resolves a user id to a display name for personalization.
type ProfileFetcher interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Renderer turns dialog outcomes into outbound LINE messages. It is stateless
// apart from the optional profile collaborator, which it tolerates failing.
type Renderer struct {
	profiles ProfileFetcher
}

// NewRenderer builds a Renderer. profiles may be nil; greetings then use the
// placeholder name.
func NewRenderer(profiles ProfileFetcher) *Renderer {
	return &Renderer{profiles: profiles}
}

// Render maps an outcome to zero or more outbound messages. OutcomeNoReply
// renders to nil.
func (r *Renderer) Render(ctx context.Context, o Outcome) []messaging_api.MessageInterface {
	switch o.Kind {
	case OutcomeGreeting:
		return textMessage(fmt.Sprintf(greetingTemplate, r.displayName(ctx, o.UserID)))
	case OutcomePromptForQuery:
		return textMessage(promptText)
	case OutcomeUnrecognized:
		return textMessage(unrecognizedText)
	case OutcomeLookupResult:
		return []messaging_api.MessageInterface{resultCard(o)}
	default:
		return nil
	}
}

func (r *Renderer) displayName(ctx context.Context, userID string) string {
	if r.profiles == nil || userID == "" {
		return fallbackDisplayName
	}
	name, err := r.profiles.DisplayName(ctx, userID)
	if err != nil || strings.TrimSpace(name) == "" {
		if err != nil {
			logger.Debug(ctx, "dialog", "profile.fetch_failed",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
		return fallbackDisplayName
	}
	return name
}

func textMessage(text string) []messaging_api.MessageInterface {
	return []messaging_api.MessageInterface{
		&messaging_api.TextMessage{Text: text},
	}
}

// resultCard builds the fixed header/hero/body/footer bubble. Only the query
// and definition text vary; the footer button re-enters the search flow via
// the start postback.
func resultCard(o Outcome) messaging_api.MessageInterface {
	bubble := &messaging_api.FlexBubble{
		Header: &messaging_api.FlexBox{
			Layout: messaging_api.FlexBoxLAYOUT_VERTICAL,
			Contents: []messaging_api.FlexComponentInterface{
				&messaging_api.FlexText{
					Text:   cardTitle,
					Size:   "xl",
					Weight: messaging_api.FlexTextWEIGHT_BOLD,
				},
			},
		},
		Hero: &messaging_api.FlexImage{
			Url:         cardHeroImage,
			Size:        "full",
			AspectRatio: "4:3",
			AspectMode:  "cover",
		},
		Body: &messaging_api.FlexBox{
			Layout: messaging_api.FlexBoxLAYOUT_VERTICAL,
			Contents: []messaging_api.FlexComponentInterface{
				&messaging_api.FlexText{
					Text:  cardQueryLabel,
					Size:  "sm",
					Color: "#c9302c",
				},
				&messaging_api.FlexText{
					Text:   o.Query,
					Size:   "sm",
					Color:  "#c9302c",
					Weight: messaging_api.FlexTextWEIGHT_BOLD,
				},
				&messaging_api.FlexText{
					Text:   o.Definition,
					Size:   "sm",
					Wrap:   true,
					Margin: "lg",
				},
			},
		},
		Footer: &messaging_api.FlexBox{
			Layout: messaging_api.FlexBoxLAYOUT_VERTICAL,
			Contents: []messaging_api.FlexComponentInterface{
				&messaging_api.FlexButton{
					Action: &messaging_api.PostbackAction{
						Label:       cardButtonText,
						DisplayText: cardButtonText,
						Data:        StartKeyword,
					},
				},
			},
		},
	}

	return &messaging_api.FlexMessage{
		AltText:  cardAltText,
		Contents: bubble,
	}
}
