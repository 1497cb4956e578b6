package pipeline

import (
	"fmt"

	"github.com/minkyuuuu/kiwoom-dashboard/internal/models"
)

// Part is one element of the extraction request: either text or an inline image.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// IsImage reports whether the part carries inline image data.
func (p Part) IsImage() bool { return p.MIMEType != "" }

// Request is the full multimodal extraction request.
type Request struct {
	SystemInstruction string
	Parts             []Part
	ResponseMIMEType  string
}

// ResponseMIMEType is the structured output format requested from the endpoint.
const ResponseMIMEType = "application/json"

// Instruction is the trailing text part of every request.
const Instruction = "Analyze the images precisely and produce the JSON report."

// SystemInstruction describes the sources, the expected response schema and the sign rule.
const SystemInstruction = `You are an expert at reading screenshots of stock market data.
Each image is preceded by its source: 30-second interval stock ranking, intraday cumulative stock ranking, themes by view rank, or themes by change rate.
Follow each source's description and respond in this JSON format:
1. extractedTime: the time shown at the top left of the image ("hh:mm").
2. marketStatus: { kospi, kospiChange, kospiChangeAmount, kosdaq, kosdaqChange, kosdaqChangeAmount }
3. realtimeStocks: up to 20 stocks from the "30-second interval" source (rank, name, price, changePercent).
4. cumulativeStocks: up to 20 stocks from the "intraday cumulative" source (rank, name, price, changePercent).
5. themesByRank: up to 10 themes from the "view rank" source (name, changePercent).
6. themesByChange: up to 10 themes from the "change rate" source (name, changePercent).
Note: extract change amounts (ChangeAmount) with their sign character (+ or -).`

// SourceHeader is the text part that precedes each image of a slot.
func SourceHeader(slot models.SlotName) string {
	return fmt.Sprintf("Image Source [%s]:", slot.SourceLabel())
}

// BuildRequest assembles the request from a slot snapshot. Slots contribute
// in fixed order and each image is preceded by its source header.
func BuildRequest(state models.SlotState) *Request {
	parts := make([]Part, 0, 2*len(models.SlotOrder)+1)
	for _, slot := range models.SlotOrder {
		for _, item := range state.Items[slot] {
			parts = append(parts,
				Part{Text: SourceHeader(slot)},
				Part{MIMEType: item.MIMEType, Data: item.Data},
			)
		}
	}
	parts = append(parts, Part{Text: Instruction})

	return &Request{
		SystemInstruction: SystemInstruction,
		Parts:             parts,
		ResponseMIMEType:  ResponseMIMEType,
	}
}

// Validate checks the slot preconditions: a stock ranking image in realtime or
// cumulative, and a theme image in themesViews or themesChange.
func Validate(state models.SlotState) error {
	hasStocks := state.Count(models.SlotRealtime) > 0 || state.Count(models.SlotCumulative) > 0
	hasThemes := state.Count(models.SlotThemesViews) > 0 || state.Count(models.SlotThemesChange) > 0
	if !hasStocks || !hasThemes {
		return &ValidationError{Msg: ValidationMessage}
	}
	return nil
}
