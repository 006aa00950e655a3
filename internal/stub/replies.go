package stub

import (
	"fmt"
	"sort"
	"strings"

	"estoquechat/internal/render"
)

// Seller is a demo account the stub accepts for identification.
type Seller struct {
	ID    string
	Name  string
	Level string
}

// DemoSellers are the ids the stub recognizes.
var DemoSellers = map[string]Seller{
	"admin":   {ID: "admin", Name: "Administrador", Level: "admin"},
	"seller1": {ID: "seller1", Name: "João Silva", Level: "seller"},
	"seller2": {ID: "seller2", Name: "Maria Santos", Level: "seller"},
	"demo":    {ID: "demo", Name: "Usuário Demo", Level: "demo"},
}

func sellerIDs() string {
	ids := make([]string, 0, len(DemoSellers))
	for id := range DemoSellers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}

var stockCommands = []render.Command{
	{Name: "adicionar", Description: "Adicionar novo produto"},
	{Name: "consultar", Description: "Consultar produto específico"},
	{Name: "atualizar", Description: "Atualizar quantidade"},
	{Name: "remover", Description: "Remover produto"},
	{Name: "listar", Description: "Ver todos os produtos"},
	{Name: "estoque-baixo", Description: "Ver produtos críticos"},
}

var systemCommands = []render.Command{
	{Name: "historico", Description: "Histórico de movimentações"},
	{Name: "logout", Description: "Encerrar sessão"},
}

func welcomeText(s Seller) string {
	var b strings.Builder
	b.WriteString(render.AccessGrantedPrefix + s.ID + "\n")
	fmt.Fprintf(&b, "Bem-vindo, %s! Nível de acesso: %s\n", s.Name, strings.ToUpper(s.Level))
	b.WriteString("📦 GESTÃO DE ESTOQUE\n")
	for _, c := range stockCommands {
		b.WriteString("• " + c.Name + " - " + c.Description + "\n")
	}
	b.WriteString("⚙️ SISTEMA & RELATÓRIOS\n")
	for _, c := range systemCommands {
		b.WriteString("• " + c.Name + " - " + c.Description + "\n")
	}
	b.WriteString("Dica: digite qualquer comando para começar!")
	return b.String()
}

func identificationRequired() string {
	return "🔐 IDENTIFICAÇÃO NECESSÁRIA\n" +
		"Para usar o sistema, identifique-se primeiro.\n" +
		"Digite: identificar [seu_id]\n" +
		"IDs disponíveis para teste: " + sellerIDs()
}

func sellerNotFound(id string) string {
	return "❌ SELLER NÃO ENCONTRADO\nSeller " + id + " não encontrado.\nIDs válidos: " + sellerIDs()
}

const missingParameter = "⚠️ PARÂMETRO FALTANDO\nSintaxe correta: identificar [seu_seller_id]"

func loggedOut(name string) string {
	return "👋 LOGOUT REALIZADO\nAté logo, " + name + "!\nPara acessar novamente, use: identificar [seu_id]"
}

const lowStock = "🚨 PRODUTOS COM ESTOQUE CRÍTICO\n" +
	"KB003 - Teclado Mecânico RGB: 3 unidades (R$ 250,00)\n" +
	"Sugestão: reabastecer com pelo menos 10 unidades.\n" +
	"Use listar para ver todos os produtos."

const productList = "📦 PRODUTOS EM ESTOQUE\n" +
	"PC001  Desktop Gamer RTX 4060   15  R$ 3.500,00  NORMAL\n" +
	"NB002  Notebook Core i7         8   R$ 4.200,00  NORMAL\n" +
	"KB003  Teclado Mecânico RGB     3   R$ 250,00    CRÍTICO\n" +
	"MS004  Mouse Gamer 16000 DPI    22  R$ 180,00    NORMAL\n" +
	"Use estoque-baixo para ver apenas produtos críticos."

func echo(message string, s Seller) string {
	return "🤖 COMANDO PROCESSADO\n" +
		"Você disse: \"" + message + "\"\n" +
		"Este é um sistema de demonstração.\n" +
		"Usuário: " + s.Name + " | Nível: " + s.Level
}
