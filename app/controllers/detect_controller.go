package controllers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/falconx-app/FalconX/app/models"
	"github.com/falconx-app/FalconX/internal/pkg/detection"
	"github.com/falconx-app/FalconX/internal/pkg/securityevent"
)

// detectPayload accepts both wire schemas in one struct: the compact one the
// current snippet sends ({uid, dom, url, ref, ua}) and the legacy one
// ({scriptId, domain, userAgent, referrer, url}). Compact fields win when
// both are present.
type detectPayload struct {
	UID   string        `json:"uid"`
	Dom   string        `json:"dom"`
	URL   string        `json:"url"`
	Ref   string        `json:"ref"`
	UA    string        `json:"ua"`
	Stats []statPayload `json:"stats"`

	ScriptID  string `json:"scriptId"`
	Domain    string `json:"domain"`
	UserAgent string `json:"userAgent"`
	Referrer  string `json:"referrer"`
}

type statPayload struct {
	Slug           string `json:"slug"`
	UniqueVisitors int64  `json:"uniqueVisitors"`
	TotalVisits    int64  `json:"totalVisits"`
}

func (p *detectPayload) token() string {
	if p.UID != "" {
		return p.UID
	}
	return p.ScriptID
}

func (p *detectPayload) domain() string {
	if p.Dom != "" {
		return p.Dom
	}
	return p.Domain
}

func (p *detectPayload) referrer() string {
	if p.Ref != "" {
		return p.Ref
	}
	return p.Referrer
}

func (p *detectPayload) userAgent(c *fiber.Ctx) string {
	if p.UA != "" {
		return p.UA
	}
	if p.UserAgent != "" {
		return p.UserAgent
	}
	return c.Get(fiber.HeaderUserAgent)
}

func (p *detectPayload) pageStats() models.PageStats {
	if len(p.Stats) == 0 {
		return nil
	}
	stats := make(models.PageStats, 0, len(p.Stats))
	for _, s := range p.Stats {
		if s.Slug == "" {
			continue
		}
		stats = append(stats, models.PageStat{
			Slug:           s.Slug,
			UniqueVisitors: s.UniqueVisitors,
			TotalVisits:    s.TotalVisits,
		})
	}
	return stats
}

// normalizeReport converts a wire payload into the engine's internal report
// type. The returned bool is false when required fields are missing.
func normalizeReport(c *fiber.Ctx, p *detectPayload) (detection.Report, bool) {
	token := p.token()
	domain := p.domain()
	if token == "" || domain == "" {
		return detection.Report{}, false
	}

	userID, err := tokenResolver.Resolve(token)
	if err != nil {
		securityevent.Log(securityevent.Event{
			Type:      securityevent.TypeInvalidToken,
			IPAddress: c.IP(),
			Path:      c.Path(),
			Excerpt:   securityevent.Truncate(token),
		})
		return detection.Report{}, false
	}

	return detection.Report{
		UserID:    userID,
		Domain:    domain,
		PageURL:   p.URL,
		Referrer:  p.referrer(),
		UserAgent: p.userAgent(c),
		IPAddress: c.IP(),
		PageStats: p.pageStats(),
	}, true
}

// HandleDetect is the public detection ping. It never leaks internals: store
// failures inside the pipeline still produce a success-shaped response.
func HandleDetect(c *fiber.Ctx) error {
	start := time.Now()

	var payload detectPayload
	if err := c.BodyParser(&payload); err != nil {
		securityevent.Log(securityevent.Event{
			Type:      securityevent.TypeMalformedPayload,
			IPAddress: c.IP(),
			Path:      c.Path(),
			Excerpt:   securityevent.Truncate(string(c.Body())),
		})
		return badRequest(c)
	}

	report, ok := normalizeReport(c, &payload)
	if !ok {
		return badRequest(c)
	}

	result, err := detectionEngine.ProcessDetection(c.Context(), report)
	if err != nil {
		if errors.Is(err, detection.ErrInvalidReport) {
			return badRequest(c)
		}
		log.Printf("detect: pipeline failure: %v", err)
		return internalError(c)
	}

	resp := fiber.Map{
		"status":         result.Status,
		"domain":         result.Domain,
		"processingTime": time.Since(start).Milliseconds(),
	}
	if result.Status == detection.StatusDetected {
		resp["originalDomain"] = result.OriginalDomain
		if result.CloneID != nil {
			resp["cloneId"] = *result.CloneID
		}
	}
	return c.JSON(resp)
}

// HandleResolveAction is the public action-resolution ping: given the same
// report shape, it answers which countermeasure the snippet should execute.
func HandleResolveAction(c *fiber.Ctx) error {
	var payload detectPayload
	if err := c.BodyParser(&payload); err != nil {
		securityevent.Log(securityevent.Event{
			Type:      securityevent.TypeMalformedPayload,
			IPAddress: c.IP(),
			Path:      c.Path(),
			Excerpt:   securityevent.Truncate(string(c.Body())),
		})
		return badRequest(c)
	}

	report, ok := normalizeReport(c, &payload)
	if !ok {
		return badRequest(c)
	}

	decision, err := detectionEngine.ResolveAction(c.Context(), report)
	if err != nil {
		if errors.Is(err, detection.ErrInvalidReport) {
			return badRequest(c)
		}
		// Fail toward "no action" so a store hiccup never breaks the page.
		log.Printf("action: resolution failure: %v", err)
		decision = detection.Decision{Action: detection.ActionNone}
	}

	resp := fiber.Map{
		"action":  decision.Action,
		"message": actionMessage(decision.Action),
	}
	if decision.URL != "" {
		resp["url"] = decision.URL
	}
	if decision.CustomMessage != "" {
		resp["customMessage"] = decision.CustomMessage
	}
	return c.JSON(resp)
}

func actionMessage(action string) string {
	switch action {
	case detection.ActionNone:
		return "no action configured"
	case detection.ActionSkip:
		return "action skipped"
	default:
		return "action resolved"
	}
}
