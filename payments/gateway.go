package payments

import "context"

// Gateway проводит оплату регистрационного взноса. Сумма в тыйынах/центах.
// Возвращает идентификатор платежа во внешней системе.
type Gateway interface {
	Charge(ctx context.Context, amount int64, cardToken, description string) (string, error)
}
