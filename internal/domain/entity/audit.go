package entity

import "time"

// Ações registradas na trilha de auditoria.
const (
	AuditActionCreate   = "CRIAR"
	AuditActionUpdate   = "ATUALIZAR"
	AuditActionDelete   = "EXCLUIR"
	AuditActionReversal = "ESTORNO"
	AuditActionLogin    = "LOGIN"
	AuditActionLogout   = "LOGOUT"
	AuditActionOther    = "OUTRO"
)

// Entidades alvo de auditoria.
const (
	AuditEntityClient      = "CLIENTE"
	AuditEntityBatch       = "LOTE"
	AuditEntityStock       = "ESTOQUE"
	AuditEntitySale        = "VENDA"
	AuditEntityTransaction = "TRANSACAO"
	AuditEntityOrder       = "PEDIDO"
	AuditEntitySystem      = "SISTEMA"
	AuditEntityOther       = "OUTRO"
)

// AuditEntry é um registro append-only da trilha de auditoria.
// A gravação é fire-and-forget: falha nunca bloqueia a operação de negócio.
type AuditEntry struct {
	ID          string         `json:"id"`
	Actor       string         `json:"ator"`
	Action      string         `json:"acao"`
	Entity      string         `json:"entidade"`
	Description string         `json:"descricao"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"criadoEm"`
}
