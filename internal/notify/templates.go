package notify

import (
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/indiejz/storefront/internal/domain/checkout"
)

// Bodies follow the original storefront mailers: dark layout, accent color,
// pt-BR copy. Kept deliberately small; styling lives inline because email
// clients ignore stylesheets.

var adminSaleTmpl = template.Must(template.New("adminSale").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #1a1a2e; color: #ffffff;">
  <h1 style="color: #00ff88;">🎮 Nova Venda Realizada!</h1>
  <div style="background-color: #16213e; padding: 20px; border-radius: 10px;">
    <h2 style="margin-top: 0;">{{.GameTitle}}</h2>
    <p style="color: #b0b0b0;">Cliente: {{.CustomerEmail}}</p>
    {{if .CouponCode}}<p style="color: #ff6b6b;">Cupom usado: {{.CouponCode}} (-{{.Discount}})</p>{{end}}
    <p style="color: #00ff88; font-size: 24px; font-weight: bold;">{{.Price}}</p>
  </div>
</div>`))

var receiptTmpl = template.Must(template.New("receipt").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #1a1a2e; color: #ffffff;">
  <h1 style="color: #00ff88;">Obrigado pela sua compra!</h1>
  <div style="background-color: #16213e; padding: 20px; border-radius: 10px;">
    <h2 style="margin-top: 0;">{{.GameTitle}}</h2>
    <p style="color: #00ff88; font-size: 24px; font-weight: bold;">{{.Price}}</p>
    {{if .DownloadURL}}<p><a href="{{.DownloadURL}}" style="color: #00ff88;">Baixar o jogo</a></p>{{end}}
  </div>
</div>`))

var donationThanksTmpl = template.Must(template.New("donationThanks").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #0a0a0a; color: #ffffff;">
  <h1 style="color: #22c55e;">Obrigado, {{.Name}}!</h1>
  <div style="background: #1a1a1a; border-radius: 12px; padding: 30px;">
    <p style="color: #a1a1aa;">Sua generosidade nos ajuda a continuar criando jogos incríveis para a comunidade.</p>
    <p style="font-size: 36px; font-weight: bold; color: #22c55e; text-align: center;">{{.Amount}}</p>
    <p style="color: #a1a1aa; text-align: center;">Seu nome foi adicionado ao nosso <strong>Mural de Apoiadores</strong>!</p>
  </div>
</div>`))

func adminSaleHTML(sale checkout.Sale) string {
	return render(adminSaleTmpl, map[string]string{
		"GameTitle":     sale.GameTitle,
		"CustomerEmail": sale.CustomerEmail,
		"CouponCode":    sale.CouponCode,
		"Discount":      formatBRL(sale.DiscountAmount),
		"Price":         formatBRL(sale.PricePaid),
	})
}

func receiptHTML(sale checkout.Sale) string {
	return render(receiptTmpl, map[string]string{
		"GameTitle":   sale.GameTitle,
		"Price":       formatBRL(sale.PricePaid),
		"DownloadURL": sale.DownloadURL,
	})
}

func donationThanksHTML(name string, amount decimal.Decimal) string {
	return render(donationThanksTmpl, map[string]string{
		"Name":   name,
		"Amount": formatBRL(amount),
	})
}

func render(t *template.Template, data map[string]string) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		// Templates are static and data is plain strings; an execute error
		// here is a programming bug.
		panic(err)
	}
	return b.String()
}
