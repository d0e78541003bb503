package notification

import (
	"fmt"

	"expense-approvals/internal/models"
	"expense-approvals/internal/notification/channel"
)

type Style struct {
	Glyph   string
	Color   string
	WebIcon string
}

var styles = map[models.NotificationType]Style{
	models.NotificationSubmitted:     {Glyph: "💰", Color: "#FFA500", WebIcon: "/icons/expense-submitted.png"},
	models.NotificationApproved:      {Glyph: "✅", Color: "#32CD32", WebIcon: "/icons/expense-approved.png"},
	models.NotificationRejected:      {Glyph: "❌", Color: "#DC143C", WebIcon: "/icons/expense-rejected.png"},
	models.NotificationFullyApproved: {Glyph: "🎉", Color: "#4CAF50", WebIcon: "/icons/expense-fully-approved.png"},
}

const defaultWebIcon = "/icons/default.png"

// StyleOf returns the glyph, color and web icon for kind.
func StyleOf(kind models.NotificationType) Style {
	if s, ok := styles[kind]; ok {
		return s
	}
	return Style{Glyph: "default", WebIcon: defaultWebIcon}
}

// Content is a rendered notification.
type Content struct {
	Title string
	Body  string
	Icon  string
	Style Style
}

// Compose renders kind for claim. Output depends only on its inputs.
func Compose(kind models.NotificationType, claim models.Claim, actorName string) Content {
	style := StyleOf(kind)
	amount := claim.Amount.StringFixed(2)

	var title, body string
	switch kind {
	case models.NotificationSubmitted:
		title = style.Glyph + " New Expense Submitted"
		body = fmt.Sprintf("%s - $%s requires your approval", claim.Title, amount)
	case models.NotificationApproved:
		title = style.Glyph + " Expense Approved"
		body = fmt.Sprintf("%s approved by %s. Pending %s approval.", claim.Title, actorName, nextApproverLabel(claim.CurrentLevel))
	case models.NotificationRejected:
		title = style.Glyph + " Expense Rejected"
		body = fmt.Sprintf("Your expense \"%s\" has been rejected by %s", claim.Title, actorName)
	case models.NotificationFullyApproved:
		title = style.Glyph + " Expense Fully Approved"
		body = fmt.Sprintf("Congratulations! Your expense \"%s\" - $%s has been fully approved", claim.Title, amount)
	default:
		title = "Expense Update"
		body = fmt.Sprintf("Your expense \"%s\" has been updated", claim.Title)
	}
	return Content{Title: title, Body: body, Icon: style.WebIcon, Style: style}
}

func nextApproverLabel(level int) string {
	if level == models.LevelAccountant {
		return "Accountant"
	}
	return "Admin"
}

// ClickAction is the client route of a claim.
func ClickAction(claimID string) string {
	return "/expenses/" + claimID
}

// Payload is the structured data stored with each notification record.
func Payload(claim models.Claim) map[string]interface{} {
	return map[string]interface{}{
		"click_action": ClickAction(claim.ID),
		"claim_id":     claim.ID,
		"claim_title":  claim.Title,
	}
}

func toMessage(kind models.NotificationType, claim models.Claim, c Content) channel.Message {
	return channel.Message{
		Title:       c.Title,
		Body:        c.Body,
		Icon:        c.Icon,
		Type:        string(kind),
		ClaimID:     claim.ID,
		ClickAction: ClickAction(claim.ID),
	}
}
