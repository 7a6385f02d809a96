package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/soyeahso/zoebot/internal/domain"
)

// maxRequestBytes caps a fulfillment request body.
const maxRequestBytes = 1 << 20

var errMissingIntent = errors.New("queryResult.intent.displayName is required")

// FulfillmentRequest is the subset of a Dialogflow v2 WebhookRequest that
// zoebot reads.
type FulfillmentRequest struct {
	ResponseID  string      `json:"responseId,omitempty"`
	Session     string      `json:"session"`
	QueryResult QueryResult `json:"queryResult"`

	OriginalDetectIntentRequest OriginalRequest `json:"originalDetectIntentRequest"`
}

// QueryResult carries the recognized intent and its slot values.
type QueryResult struct {
	QueryText    string         `json:"queryText"`
	LanguageCode string         `json:"languageCode,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	Intent       struct {
		Name        string `json:"name,omitempty"`
		DisplayName string `json:"displayName"`
	} `json:"intent"`
}

// OriginalRequest is the platform payload Dialogflow forwards.
type OriginalRequest struct {
	Source  string `json:"source,omitempty"`
	Payload struct {
		User struct {
			UserID string `json:"userId,omitempty"`
		} `json:"user"`
	} `json:"payload"`
}

// UserID returns the assistant platform's user id, if it sent one.
func (r FulfillmentRequest) UserID() string {
	return r.OriginalDetectIntentRequest.Payload.User.UserID
}

// decodeRequest reads and checks a fulfillment request body.
func decodeRequest(body io.Reader) (FulfillmentRequest, error) {
	var req FulfillmentRequest
	dec := json.NewDecoder(io.LimitReader(body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		return FulfillmentRequest{}, fmt.Errorf("decoding request: %w", err)
	}
	if strings.TrimSpace(req.QueryResult.Intent.DisplayName) == "" {
		return FulfillmentRequest{}, errMissingIntent
	}
	return req, nil
}

// FulfillmentResponse is a Dialogflow v2 WebhookResponse carrying an
// Actions on Google payload.
type FulfillmentResponse struct {
	FulfillmentText string          `json:"fulfillmentText"`
	Payload         ResponsePayload `json:"payload"`
	OutputContexts  []OutputContext `json:"outputContexts,omitempty"`
}

type ResponsePayload struct {
	Google GooglePayload `json:"google"`
}

type GooglePayload struct {
	ExpectUserResponse bool         `json:"expectUserResponse"`
	RichResponse       RichResponse `json:"richResponse"`
}

type RichResponse struct {
	Items []RichItem `json:"items"`
}

type RichItem struct {
	SimpleResponse SimpleResponse `json:"simpleResponse"`
}

type SimpleResponse struct {
	TextToSpeech string `json:"textToSpeech"`
}

// OutputContext sets or clears a context. A lifespan of zero clears it, so
// the count is always sent.
type OutputContext struct {
	Name          string `json:"name"`
	LifespanCount int    `json:"lifespanCount"`
}

// encodeReply renders a reply for the given Dialogflow session.
func encodeReply(session string, reply domain.Reply) FulfillmentResponse {
	resp := FulfillmentResponse{
		FulfillmentText: reply.Text(),
		Payload: ResponsePayload{Google: GooglePayload{
			ExpectUserResponse: true,
			RichResponse:       RichResponse{Items: make([]RichItem, 0, len(reply.Texts))},
		}},
	}
	for _, t := range reply.Texts {
		resp.Payload.Google.RichResponse.Items = append(resp.Payload.Google.RichResponse.Items,
			RichItem{SimpleResponse: SimpleResponse{TextToSpeech: t}})
	}
	for _, c := range reply.Contexts {
		resp.OutputContexts = append(resp.OutputContexts, OutputContext{
			Name:          session + "/contexts/" + c.Name,
			LifespanCount: c.Lifespan,
		})
	}
	return resp
}
