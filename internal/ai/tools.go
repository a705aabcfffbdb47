package ai

import (
	"github.com/sashabaranov/go-openai"
)

// The maximum number of product lookups a single reply may spend
const maxLookupsPerTurn = 3

func availableTools() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "ean_tool",
				Description: "Busca os códigos dos produtos mais parecidos com o que o cliente pediu. Use SEMPRE antes de informar preço ou disponibilidade. Retorna até 3 candidatos. NUNCA mostre os códigos ao cliente.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"query": map[string]interface{}{
							"type":        "string",
							"description": "Produto pedido pelo cliente, com marca e tamanho se informados (ex: 'leite condensado 395g')",
						},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "estoque_tool",
				Description: "Consulta preço e disponibilidade de um produto pelo código retornado por ean_tool. Só retorna produtos disponíveis. Para itens vendidos por peso, informe peso_gramas ou valor_reais para calcular o preço da porção. Nunca revele o código nem quantidades de estoque.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"ean": map[string]interface{}{
							"type":        "string",
							"description": "Código EAN do produto",
						},
						"peso_gramas": map[string]interface{}{
							"type":        "integer",
							"description": "Peso pedido em gramas, quando o cliente pediu por peso (ex: 300)",
						},
						"valor_reais": map[string]interface{}{
							"type":        "number",
							"description": "Valor em reais, quando o cliente pediu por valor (ex: 20 para 'R$ 20 de mussarela')",
						},
					},
					"required": []string{"ean"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "pedidos_tool",
				Description: "Envia o pedido fechado do cliente. Use apenas UMA vez por pedido, depois que o cliente confirmar itens, total, forma de pagamento e endereço (ou retirada na loja).",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"nome_cliente": map[string]interface{}{
							"type":        "string",
							"description": "Nome do cliente",
						},
						"itens": map[string]interface{}{
							"type":        "array",
							"description": "Itens confirmados do pedido",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"nome_produto": map[string]interface{}{
										"type":        "string",
										"description": "Nome do produto, incluindo o peso quando vendido por quilo (ex: 'Presunto Sadia 300g')",
									},
									"quantidade": map[string]interface{}{
										"type":        "integer",
										"description": "Quantidade de unidades (sempre 1 para itens por peso)",
									},
									"preco_unitario": map[string]interface{}{
										"type":        "number",
										"description": "Preço unitário em reais",
									},
								},
								"required": []string{"nome_produto", "quantidade", "preco_unitario"},
							},
						},
						"forma_pagamento": map[string]interface{}{
							"type":        "string",
							"description": "Forma de pagamento: pix, cartao ou dinheiro",
						},
						"endereco": map[string]interface{}{
							"type":        "string",
							"description": "Endereço de entrega, ou vazio para retirada na loja",
						},
						"retirada": map[string]interface{}{
							"type":        "boolean",
							"description": "true se o cliente vai retirar na loja",
						},
					},
					"required": []string{"nome_cliente", "itens", "forma_pagamento"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "alterar_tool",
				Description: "Altera um pedido já enviado, dentro de 10 minutos do envio. Envie a lista COMPLETA de itens revisada, não apenas o que mudou.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"itens": map[string]interface{}{
							"type":        "array",
							"description": "Lista completa e revisada dos itens do pedido",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"nome_produto": map[string]interface{}{
										"type": "string",
									},
									"quantidade": map[string]interface{}{
										"type": "integer",
									},
									"preco_unitario": map[string]interface{}{
										"type": "number",
									},
								},
								"required": []string{"nome_produto", "quantidade", "preco_unitario"},
							},
						},
					},
					"required": []string{"itens"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "time_tool",
				Description: "Informa a data e hora atual do mercado. Use quando o cliente perguntar sobre horário, dia da semana ou prazos.",
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": map[string]interface{}{},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "search_message_history",
				Description: "Busca mensagens antigas da conversa com este cliente. Use quando o cliente se referir a algo dito anteriormente ('aquele queijo de ontem', 'o mesmo pedido da semana passada').",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"keyword": map[string]interface{}{
							"type":        "string",
							"description": "Palavra-chave para filtrar as mensagens (opcional)",
						},
					},
				},
			},
		},
	}
}

// Tool argument payloads as the model emits them

type eanArgs struct {
	Query string `json:"query"`
}

type estoqueArgs struct {
	EAN        string  `json:"ean"`
	PesoGramas int     `json:"peso_gramas"`
	ValorReais float64 `json:"valor_reais"`
}

type orderItemArgs struct {
	NomeProduto   string  `json:"nome_produto"`
	Quantidade    int     `json:"quantidade"`
	PrecoUnitario float64 `json:"preco_unitario"`
}

type pedidosArgs struct {
	NomeCliente    string          `json:"nome_cliente"`
	Itens          []orderItemArgs `json:"itens"`
	FormaPagamento string          `json:"forma_pagamento"`
	Endereco       string          `json:"endereco"`
	Retirada       bool            `json:"retirada"`
}

type alterarArgs struct {
	Itens []orderItemArgs `json:"itens"`
}

type historyArgs struct {
	Keyword string `json:"keyword"`
}
