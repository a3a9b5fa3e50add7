package extract

// The marketplace renders section headers in the viewer's locale. These term
// tables cover the locales the site ships (ru/uk/en).

var paidProductTerms = []string{
	"Оплаченный товар",
	"Оплаченные товары",
	"Оплачений товар",
	"Оплачені товари",
	"Paid product",
	"Paid products",
}

var shortDescriptionTerms = []string{
	"Краткое описание",
	"Короткий опис",
	"Short description",
}

var fullDescriptionTerms = []string{
	"Полное описание",
	"Повний опис",
	"Full description",
}

var categoryTerms = []string{
	"Категория",
	"Категорія",
	"Category",
	"Валюта",
	"Currency",
}

var amountTerms = []string{
	"Кол-во",
	"Кількість",
	"Amount",
}

var refundTerms = []string{
	"Возврат",
	"Повернення",
	"Refund",
}

var closedTerms = []string{
	"Закрыт",
	"Закрито",
	"Closed",
}

func matchesAny(text string, variants []string) bool {
	for _, v := range variants {
		if v == text {
			return true
		}
	}
	return false
}
