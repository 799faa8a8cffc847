package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/cardaverse-ai/cardaverse-customcard/core"
)

const SupportAddress = "support@cardaverse.ai"

type emailData struct {
	core.Notification
	Support string
}

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="text-align: center; margin-bottom: 30px;">
    <h1 style="color: rgb(101, 116, 74); margin-bottom: 10px;">Your Custom Cards Are Ready!</h1>
    <p style="color: #666; font-size: 16px;">Order #{{.OrderNumber}}</p>
  </div>
  <div style="margin-bottom: 30px;">
    <p style="font-size: 16px; line-height: 1.6;">Hi {{.CustomerName}},</p>
    <p style="font-size: 16px; line-height: 1.6;">
      Thank you for your order! Your custom cards have been processed and are ready for download.
      Please use the links below to download your personalized cards.
    </p>
  </div>
  <div style="margin-bottom: 30px;">
    <h2 style="color: #333; margin-bottom: 20px;">Your Downloads:</h2>
{{- range .Items}}
    <div style="margin-bottom: 20px; padding: 15px; border: 1px solid #e0e0e0; border-radius: 8px;">
      <h3 style="margin: 0 0 10px 0; color: #333;">{{.Title}}</h3>
      <p style="margin: 0 0 10px 0; color: #666;">Quantity: {{.Quantity}}</p>
      <a href="{{.DownloadURL}}" style="display: inline-block; padding: 10px 20px; background-color: rgb(101, 116, 74); color: white; text-decoration: none; border-radius: 5px; font-weight: bold;" target="_blank">Download Your Custom Card</a>
    </div>
{{- end}}
  </div>
  <div style="margin-bottom: 30px; padding: 20px; background-color: #f9f9f9; border-radius: 8px;">
    <h3 style="color: #333; margin-bottom: 10px;">Important Notes:</h3>
    <ul style="color: #666; line-height: 1.6;">
      <li>Download links are valid for 30 days from the order date</li>
      <li>Files are high-resolution PDFs ready for printing</li>
      <li>If you have any issues downloading, please contact our support team</li>
    </ul>
  </div>
  <div style="text-align: center; margin-top: 40px; padding-top: 20px; border-top: 1px solid #e0e0e0;">
    <p style="color: #666; margin-bottom: 10px;">Need help? Contact us:</p>
    <p style="color: rgb(101, 116, 74); font-weight: bold;">{{.Support}}</p>
  </div>
</div>
`))

var textBody = texttemplate.Must(texttemplate.New("text").Parse(`Hi {{.CustomerName}},

Thank you for your order #{{.OrderNumber}}! Your custom cards have been processed and are ready for download.

Your Download Links:
{{range .Items}}
{{.Title}} (Quantity: {{.Quantity}})
Download: {{.DownloadURL}}
{{end}}
Important Notes:
- Download links are valid for 30 days from the order date
- Files are high-resolution PDFs ready for printing
- If you have any issues downloading, please contact our support team

Need help? Contact us at {{.Support}}

Best regards,
The Cardaverse Team
`))

// Render produces the HTML and plain-text bodies of n.
func Render(n core.Notification) (html, text string, err error) {
	data := emailData{Notification: n, Support: SupportAddress}

	var hb, tb bytes.Buffer
	if err := htmlBody.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}
	if err := textBody.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	return hb.String(), tb.String(), nil
}
