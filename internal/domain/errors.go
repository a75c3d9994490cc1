package domain

import "errors"

// Erros de domínio (sem dependências externas).
var (
	ErrNotFound         = errors.New("recurso não encontrado")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrDuplicate        = errors.New("recurso duplicado")
	ErrConflict         = errors.New("conflito com o estado atual")
	ErrAlreadyReversed  = errors.New("registro já estornado")
	ErrBatchNotOpen     = errors.New("lote não está aberto")
	ErrStockUnavailable = errors.New("item de estoque indisponível")
	// ErrOwnedTransaction: transações vinculadas a venda ou conta a pagar
	// só podem ser estornadas pelo estorno da entidade dona.
	ErrOwnedTransaction = errors.New("transação vinculada a venda ou conta a pagar; estorne pela entidade de origem")
)
