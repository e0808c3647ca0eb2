package finance

import "strings"

// FallbackExpenseCategory is used when no keyword bucket matches
const FallbackExpenseCategory = "Outras Despesas"

// categoryRule maps a set of description keywords to an expense category.
// Rules are evaluated in order; the first match wins.
type categoryRule struct {
	category string
	keywords []string
}

// expenseRules is ordered from most to least specific so that, e.g.,
// "google cloud" lands in infrastructure before "google ads" style
// marketing keywords get a chance.
var expenseRules = []categoryRule{
	{
		category: "Infraestrutura",
		keywords: []string{
			"aws", "amazon web services", "google cloud", "gcp", "azure",
			"digitalocean", "vercel", "heroku", "cloudflare", "hostgator",
			"locaweb", "registro.br", "servidor", "hospedagem",
		},
	},
	{
		category: "Marketing",
		keywords: []string{
			"google ads", "facebook ads", "meta ads", "instagram ads",
			"trafego pago", "tráfego pago", "anuncio", "anúncio", "impulsionamento",
		},
	},
	{
		category: "Software e Assinaturas",
		keywords: []string{
			"notion", "slack", "figma", "adobe", "canva", "zoom",
			"google workspace", "microsoft 365", "openai", "chatgpt",
			"github", "assinatura", "licenca", "licença",
		},
	},
	{
		category: "Folha de Pagamento",
		keywords: []string{
			"salario", "salário", "folha", "prolabore", "pró-labore",
			"funcionario", "funcionário", "ferias", "férias", "13o",
		},
	},
	{
		category: "Impostos e Taxas",
		keywords: []string{
			"imposto", "darf", "simples nacional", "inss", "fgts", "irpj",
			"taxa", "tarifa", "iof", "juros", "multa",
		},
	},
	{
		category: "Fornecedores",
		keywords: []string{
			"fornecedor", "freelancer", "freela", "consultoria",
			"servico prestado", "serviço prestado", "terceirizado",
		},
	},
	{
		category: "Escritório e Utilidades",
		keywords: []string{
			"aluguel", "condominio", "condomínio", "energia", "luz",
			"agua", "água", "internet", "telefone", "limpeza", "papelaria",
		},
	},
	{
		category: "Equipamentos",
		keywords: []string{
			"equipamento", "computador", "notebook", "monitor",
			"cadeira", "mesa", "teclado", "mouse",
		},
	},
}

// Categorizer assigns expense categories from transaction descriptions
type Categorizer struct {
	rules    []categoryRule
	fallback string
}

// NewCategorizer creates a categorizer with the default rule set
func NewCategorizer() *Categorizer {
	return &Categorizer{
		rules:    expenseRules,
		fallback: FallbackExpenseCategory,
	}
}

// Categorize returns the category for a transaction description.
// An explicitly provided category always wins over keyword matching.
func (c *Categorizer) Categorize(description, explicitCategory string) string {
	if explicit := strings.TrimSpace(explicitCategory); explicit != "" {
		return explicit
	}

	normalized := strings.ToLower(description)
	for _, rule := range c.rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(normalized, keyword) {
				return rule.category
			}
		}
	}
	return c.fallback
}
