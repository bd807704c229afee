package contracts

import (
	"github.com/luxury-supply-chain/chaincode/product-lifecycle/internal/ledger"
)

// ProductHistoryRecord is one committed version of a product
type ProductHistoryRecord struct {
	TxID      string          `json:"txId"`
	Timestamp int64           `json:"timestamp"`
	IsDelete  bool            `json:"isDelete"`
	Record    *ledger.Product `json:"record,omitempty" metadata:",optional"`
}
