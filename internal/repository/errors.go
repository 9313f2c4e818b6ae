package repository

import (
	"errors"
	"strings"

	"github.com/nimasrn/baki-ledger/internal/model"
	"gorm.io/gorm"
)

func customerNotFound(id int64) error {
	return &model.NotFoundError{Entity: "customer", ID: id}
}

func transactionNotFound(id int64) error {
	return &model.NotFoundError{Entity: "transaction", ID: id}
}

// translate maps gorm failures onto the ledger error taxonomy.
func translate(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return model.AsStorageError(op, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
