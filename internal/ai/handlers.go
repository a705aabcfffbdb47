package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"

	"iamercado/internal/pricing"
	"iamercado/internal/session"
	"iamercado/pkg/models"
)

// turnState carries per-reply budgets across tool rounds
type turnState struct {
	lookups int
}

// executeToolCall dispatches one tool call and returns the text fed back to
// the model. Failures are reported as instructions the model can act on
// rather than as errors that abort the reply.
func (s *AttendantService) executeToolCall(ctx context.Context, phone string, turn *turnState, call openai.ToolCall) string {
	name := call.Function.Name
	args := call.Function.Arguments

	log.Info().Str("phone", phone).Str("tool", name).Msg("executing tool call")

	var result string
	switch name {
	case "ean_tool":
		result = s.handleEAN(ctx, turn, args)
	case "estoque_tool":
		result = s.handleEstoque(ctx, args)
	case "pedidos_tool":
		result = s.handlePedidos(ctx, phone, args)
	case "alterar_tool":
		result = s.handleAlterar(ctx, phone, args)
	case "time_tool":
		result = s.clock.DescribeNow()
	case "search_message_history":
		result = s.handleHistory(phone, args)
	default:
		result = fmt.Sprintf("ferramenta desconhecida: %s", name)
	}
	return result
}

func (s *AttendantService) handleEAN(ctx context.Context, turn *turnState, rawArgs string) string {
	var args eanArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil || strings.TrimSpace(args.Query) == "" {
		return "informe o produto a buscar no campo query"
	}

	if turn.lookups >= maxLookupsPerTurn {
		return "Limite de 3 consultas por resposta atingido. Responda com o que já foi consultado ou ofereça um substituto parecido."
	}
	turn.lookups++

	query := s.norm().Normalize(args.Query)
	candidates, err := s.products.SearchEANCandidates(ctx, query, 3)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("EAN lookup failed")
		return "Não consegui consultar agora. Ofereça ajuda com outro produto."
	}
	if len(candidates) == 0 {
		return "Nenhum produto parecido encontrado. Ofereça um substituto de outra marca ou categoria próxima, sem dizer que está em falta."
	}

	type candidate struct {
		EAN  string `json:"ean"`
		Nome string `json:"nome"`
	}
	out := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, candidate{EAN: c.EAN, Nome: c.Name})
	}
	payload, _ := json.Marshal(out)
	return string(payload)
}

func (s *AttendantService) handleEstoque(ctx context.Context, rawArgs string) string {
	var args estoqueArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil || strings.TrimSpace(args.EAN) == "" {
		return "informe o código EAN no campo ean"
	}

	infos, err := s.stock.Lookup(ctx, args.EAN)
	if err != nil {
		log.Error().Err(err).Str("ean", args.EAN).Msg("stock lookup failed")
		return "Não consegui consultar o preço agora. Tente outro produto ou peça desculpas ao cliente."
	}
	if len(infos) == 0 {
		return "Produto indisponível. Ofereça um substituto parecido, sem mencionar falta de estoque."
	}
	info := infos[0]

	result := map[string]interface{}{
		"disponivel": true,
		"preco":      FormatCents(info.PriceCents),
	}
	if info.Name != "" {
		result["nome"] = info.Name
	}

	// Weighed goods: run the portion through the fractional calculator so the
	// model never does money arithmetic itself
	if product := s.lookupProduct(args.EAN); product != nil && product.PricePerKg {
		minGrams := s.minimumGramsFor(product)
		result["vendido_por_peso"] = true
		result["preco_por_kg"] = FormatCents(info.PriceCents)
		if minGrams > 0 {
			result["peso_minimo"] = pricing.FormatWeight(minGrams)
		}

		switch {
		case args.PesoGramas > 0:
			quote, err := s.calc.ByWeight(args.PesoGramas, info.PriceCents, minGrams)
			var below *pricing.BelowMinimumError
			if errors.As(err, &below) {
				return fmt.Sprintf("Peso abaixo do mínimo da categoria (%s). Ofereça o mínimo ao cliente.",
					pricing.FormatWeight(below.MinimumGrams))
			}
			if err != nil {
				return "Peso inválido para este produto."
			}
			s.fillQuote(result, product.Name, quote)
		case args.ValorReais > 0:
			amountCents := int64(math.Round(args.ValorReais * 100))
			quote, err := s.calc.ByAmount(amountCents, info.PriceCents, minGrams)
			var below *pricing.BelowMinimumError
			if errors.As(err, &below) {
				return fmt.Sprintf("O valor pedido rende menos que o peso mínimo (%s). Ofereça o mínimo ao cliente.",
					pricing.FormatWeight(below.MinimumGrams))
			}
			if err != nil {
				return "Valor inválido para este produto."
			}
			s.fillQuote(result, product.Name, quote)
		}
	}

	payload, _ := json.Marshal(result)
	return string(payload)
}

// fillQuote writes a computed portion quote into the estoque result
func (s *AttendantService) fillQuote(result map[string]interface{}, productName string, quote pricing.Quote) {
	result["item"] = pricing.ItemName(productName, quote.Grams)
	result["peso"] = pricing.FormatWeight(quote.Grams)
	result["preco_porcao"] = FormatCents(quote.PriceCents)
	result["quantidade"] = quote.Quantity
	if quote.Clamped {
		result["observacao"] = "peso ajustado para o mínimo da categoria"
	}
}

// lookupProduct returns the local catalog entry for an EAN, or nil
func (s *AttendantService) lookupProduct(ean string) *models.Product {
	if s.catalog == nil {
		return nil
	}
	product, err := s.catalog.GetByEAN(ean)
	if err != nil {
		return nil
	}
	return product
}

// minimumGramsFor resolves the category minimum billable weight
func (s *AttendantService) minimumGramsFor(product *models.Product) int {
	if product.Category == nil {
		return 0
	}
	if product.Category.MinWeightGrams > 0 {
		return product.Category.MinWeightGrams
	}
	if min, ok := pricing.DefaultMinimums[strings.ToLower(product.Category.Name)]; ok {
		return min
	}
	return 0
}

func (s *AttendantService) handlePedidos(ctx context.Context, phone, rawArgs string) string {
	var args pedidosArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return "pedido mal formado, envie nome_cliente, itens e forma_pagamento"
	}
	if len(args.Itens) == 0 {
		return "o pedido precisa de pelo menos um item"
	}

	payment, ok := normalizePayment(args.FormaPagamento)
	if !ok {
		return "forma de pagamento inválida: aceite apenas pix, cartao ou dinheiro"
	}
	if !args.Retirada && strings.TrimSpace(args.Endereco) == "" {
		return "confirme o endereço de entrega ou se o cliente vai retirar na loja"
	}

	if s.tracker.Status(phone) == models.SessionSubmitted {
		return "Já existe um pedido enviado para este cliente. Use alterar_tool para mudanças, dentro de 10 minutos do envio."
	}

	items, errMsg := toOrderItems(args.Itens)
	if errMsg != "" {
		return errMsg
	}

	// each attempt records the full list, so a retry after a dashboard
	// failure does not duplicate lines
	if _, err := s.tracker.SetItems(phone, items); err != nil {
		if errors.Is(err, session.ErrAlreadySubmitted) {
			return "Já existe um pedido enviado para este cliente. Use alterar_tool."
		}
		log.Error().Err(err).Str("phone", phone).Msg("failed to record session items")
		return "Não consegui registrar o pedido agora. Peça desculpas ao cliente."
	}
	if err := s.tracker.SetDelivery(phone, payment, args.Endereco, args.Retirada); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("failed to record delivery details")
	}

	order := &models.Order{
		CustomerName:  strings.TrimSpace(args.NomeCliente),
		CustomerPhone: phone,
		TotalCents:    models.SumItemsCents(items),
		PaymentMethod: payment,
		Address:       strings.TrimSpace(args.Endereco),
		Pickup:        args.Retirada,
		Items:         items,
	}
	if customer, err := s.customers.GetOrCreateByPhone(phone); err == nil {
		order.CustomerID = &customer.ID
		if err := s.customers.UpdateProfile(phone, order.CustomerName, order.Address); err != nil {
			log.Error().Err(err).Str("phone", phone).Msg("failed to update customer profile")
		}
	}
	order.ReceiptURL = s.attachReceipt(phone)

	payload := order.ToDashboardOrder()
	if err := s.dashboard.SubmitOrder(ctx, &payload); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("order submission failed")
		return "Falha ao enviar o pedido. Peça desculpas e avise que vai tentar novamente em instantes."
	}

	sess, err := s.tracker.Submit(phone)
	if err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("session submit after dashboard accept")
	} else {
		order.SubmittedAt = sess.SubmittedAt
	}
	order.Status = "submitted"
	if s.orders != nil {
		if err := s.orders.Create(order); err != nil {
			log.Error().Err(err).Str("phone", phone).Msg("failed to persist order")
		}
	}
	if s.notifier != nil {
		s.notifier.OrderSubmitted(order)
	}

	return fmt.Sprintf("Pedido enviado com sucesso. Total %s, pagamento %s. Confirme ao cliente e avise que alterações valem por 10 minutos.",
		FormatCents(order.TotalCents), payment)
}

func (s *AttendantService) handleAlterar(ctx context.Context, phone, rawArgs string) string {
	var args alterarArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil || len(args.Itens) == 0 {
		return "envie a lista completa e revisada de itens no campo itens"
	}

	items, errMsg := toOrderItems(args.Itens)
	if errMsg != "" {
		return errMsg
	}

	sess, err := s.tracker.ReplaceItems(phone, items)
	switch {
	case errors.Is(err, session.ErrModificationWindowClosed):
		return "Já passaram mais de 10 minutos do envio, o pedido não pode mais ser alterado. Avise o cliente com gentileza."
	case errors.Is(err, session.ErrNoActiveSession):
		return "Não há pedido enviado para este cliente. Se for um pedido novo, use pedidos_tool."
	case err != nil:
		log.Error().Err(err).Str("phone", phone).Msg("failed to revise session")
		return "Não consegui alterar o pedido agora. Peça desculpas ao cliente."
	}

	order, err := s.orders.GetLatestByPhone(phone)
	if err != nil || order == nil {
		log.Error().Err(err).Str("phone", phone).Msg("no persisted order to revise")
		return "Não encontrei o pedido para alterar. Avise o cliente que não foi possível."
	}

	order.Items = items
	order.TotalCents = models.SumItemsCents(items)
	if sess.PaymentMethod != "" {
		order.PaymentMethod = sess.PaymentMethod
	}

	payload := order.ToDashboardOrder()
	if err := s.dashboard.UpdateOrder(ctx, phone, &payload); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("order update failed")
		return "Falha ao alterar o pedido no sistema. Peça desculpas ao cliente."
	}
	if err := s.orders.Update(order); err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("failed to persist revised order")
	}
	if s.notifier != nil {
		s.notifier.OrderUpdated(order)
	}

	return fmt.Sprintf("Pedido alterado com sucesso. Novo total %s. Confirme ao cliente.", FormatCents(order.TotalCents))
}

func (s *AttendantService) handleHistory(phone, rawArgs string) string {
	var args historyArgs
	_ = json.Unmarshal([]byte(rawArgs), &args)

	limit := 10
	if strings.TrimSpace(args.Keyword) == "" {
		limit = 15
	}
	msgs, err := s.messages.SearchByKeyword(phone, args.Keyword, limit)
	if err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("message history search failed")
		return "Não consegui buscar o histórico agora."
	}
	if len(msgs) == 0 {
		return "Nenhuma mensagem anterior encontrada."
	}

	var b strings.Builder
	for _, m := range msgs {
		role := "cliente"
		if m.Role == models.RoleAssistant {
			role = "atendente"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.CreatedAt.Format("02/01 15:04"), role, m.Content)
	}
	return b.String()
}

// attachReceipt re-hosts a pending receipt image, falling back to the
// transient gateway URL when S3 is not configured
func (s *AttendantService) attachReceipt(phone string) string {
	mediaURL := s.memory.TakePendingReceipt(phone)
	if mediaURL == "" {
		return ""
	}
	if s.storage == nil {
		return mediaURL
	}
	url, err := s.storage.UploadReceiptImage(mediaURL, phone)
	if err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("failed to re-host receipt image")
		return mediaURL
	}
	return url
}

// toOrderItems validates and converts model-emitted items to order lines
func toOrderItems(in []orderItemArgs) ([]models.OrderItem, string) {
	items := make([]models.OrderItem, 0, len(in))
	for _, it := range in {
		name := strings.TrimSpace(it.NomeProduto)
		if name == "" {
			return nil, "item sem nome_produto"
		}
		if it.Quantidade < 1 {
			return nil, fmt.Sprintf("quantidade inválida para %q, use no mínimo 1", name)
		}
		if it.PrecoUnitario <= 0 {
			return nil, fmt.Sprintf("preço inválido para %q", name)
		}
		items = append(items, models.OrderItem{
			ProductName:    name,
			Quantity:       it.Quantidade,
			UnitPriceCents: int64(math.Round(it.PrecoUnitario * 100)),
		})
	}
	return items, ""
}

// normalizePayment maps customer wording to the accepted payment methods
func normalizePayment(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case models.PaymentPix:
		return models.PaymentPix, true
	case models.PaymentCard, "cartão", "cartao de credito", "cartão de crédito", "cartao de debito", "cartão de débito", "credito", "crédito", "debito", "débito":
		return models.PaymentCard, true
	case models.PaymentCash, "em dinheiro", "especie", "espécie":
		return models.PaymentCash, true
	}
	return "", false
}
