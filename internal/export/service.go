package export

import (
	"log/slog"

	"github.com/joseph-ayodele/ballot-registry/constants"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

// Service renders a registry into the formats operators hand over.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// missingIdentity is printed in place of an identity field nobody read.
const missingIdentity = constants.ErrorSentinel

// exportedQuestions are the vote columns of the registry layout.
var exportedQuestions = []string{"1", "2", "3", "4"}

var registryHeaders = []string{
	"Статус",
	"Адрес",
	"Фамилия",
	"Имя",
	"Отчество",
	"СНИЛС",
	"№ Помещения",
	"Площадь",
	"Доля",
	"№ Рег.",
	"Дата Рег.",
	"Дата Собрания",
	"Вопрос 1",
	"Вопрос 2",
	"Вопрос 3",
	"Вопрос 4",
}

// registryRow lays out one document in registryHeaders order.
func registryRow(d entity.GroupedDocument) []string {
	r := d.Record
	row := []string{
		string(constants.VerificationLabel(d.IsVerified)),
		r.Address.String(),
		r.LastName.Or(missingIdentity),
		r.FirstName.Or(missingIdentity),
		r.MiddleName.Or(missingIdentity),
		r.Snils.Or(missingIdentity),
		r.RoomNo.String(),
		r.Area.String(),
		r.OwnershipShare.String(),
		r.RegNumber.String(),
		r.RegDate.String(),
		r.MeetingDate.String(),
	}
	for _, q := range exportedQuestions {
		label := ""
		if v, ok := r.Votes[q]; ok {
			label = v.Label()
		}
		row = append(row, label)
	}
	return row
}
