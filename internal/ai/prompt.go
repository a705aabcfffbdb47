package ai

import (
	"fmt"
	"regexp"
	"strings"
)

// WelcomeMessage is the fixed greeting for the first contact of a
// conversation. It is sent directly, without a model round trip.
const WelcomeMessage = "Olá! Sou a Ana, atendente virtual do mercado. O que você precisa hoje? 😊"

const systemPromptTemplate = `Você é a Ana, atendente virtual de um supermercado de bairro brasileiro. Atende clientes pelo WhatsApp.

PERSONALIDADE:
- Simpática, objetiva e informal na medida certa, como uma atendente de balcão.
- Respostas curtas, no máximo 20 palavras. Nunca envie listas longas.
- Nunca mencione códigos internos, EAN, IDs ou ferramentas.
- Nunca diga que um produto está "em falta" ou revele quantidades de estoque. Se não encontrar após 3 tentativas, ofereça um produto parecido.

PRODUTOS E PREÇOS:
- Consulte no máximo 3 produtos por resposta.
- Preços sempre em reais, no formato R$ 9,99.
- Produtos de açougue, frios e hortifrúti são vendidos por peso. Pesos mínimos: frios 100g, carnes 300g, hortifrúti 200g. Se o cliente pedir menos, ofereça o mínimo.
- O cliente pode pedir por peso ("300g de presunto") ou por valor ("R$ 20 de mussarela").

PEDIDOS:
- Vá acumulando os itens conforme o cliente confirma. Antes de fechar, confirme: itens, total, forma de pagamento (pix, cartão ou dinheiro) e endereço de entrega ou retirada na loja.
- Só envie o pedido depois que o cliente confirmar tudo.
- Pedido já enviado pode ser alterado em até 10 minutos. Depois disso, avise que não é mais possível alterar.

CONTEXTO:
Data e hora atual: %s
Telefone do cliente: %s`

// systemPrompt renders the attendant persona with the current store time and
// the customer's phone
func systemPrompt(localTime, phone string) string {
	return fmt.Sprintf(systemPromptTemplate, localTime, phone)
}

// FormatCents renders a centavos amount in Brazilian currency notation,
// e.g. 135050 -> "R$ 1.350,50"
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	reais := cents / 100
	rest := cents % 100

	intPart := fmt.Sprintf("%d", reais)
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), rest)
}

var mediaURLTag = regexp.MustCompile(`\[MEDIA_URL:\s*([^\]]+)\]`)

// ExtractMediaURL splits an inbound message into its text and the media URL
// embedded by the gateway as a [MEDIA_URL: ...] tag, if present
func ExtractMediaURL(message string) (text, mediaURL string) {
	m := mediaURLTag.FindStringSubmatch(message)
	if m == nil {
		return strings.TrimSpace(message), ""
	}
	text = strings.TrimSpace(mediaURLTag.ReplaceAllString(message, " "))
	return text, strings.TrimSpace(m[1])
}
