package llm

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/ballot-registry/constants"
)

// BuildSystemPrompt describes the ballot layout and the answer format. The
// wording is Russian because the ballots are, and models follow the
// document language more reliably that way.
func BuildSystemPrompt() string {
	parts := []string{
		"Ты эксперт по распознаванию бюллетеней общего собрания собственников помещений в многоквартирном доме.",
		"Твоя задача: извлечь данные со страницы и определить, является ли она НАЧАЛОМ нового документа.",

		// start page cues
		"ПРИЗНАКИ НАЧАЛЬНОЙ СТРАНИЦЫ (isStartPage: true):",
		"заголовок \"РЕШЕНИЕ СОБСТВЕННИКА\" или \"БЮЛЛЕТЕНЬ\";",
		"поля для ФИО и СНИЛС в верхней половине листа;",
		"адрес многоквартирного дома.",

		// continuation cues
		"ПРИЗНАКИ ПОСЛЕДУЮЩЕЙ СТРАНИЦЫ (isStartPage: false):",
		"только таблица с вопросами (продолжение);",
		"нет шапки с ФИО и СНИЛС;",
		"подписи в самом низу страницы.",

		"ДАННЫЕ ДЛЯ ИЗВЛЕЧЕНИЯ:",
		"ФИО (lastName, firstName, middleName);",
		"СНИЛС (snils, 11 цифр);",
		"адрес (address), номер помещения (roomNo), площадь (area), доля (ownershipShare), вид собственности (ownershipType);",
		"номер и дата регистрации права (regNumber, regDate), дата собрания (meetingDate);",
		"тексты вопросов из колонки \"Наименование вопроса\" (questionTexts, ключ = номер вопроса), извлекай ПОЛНОСТЬЮ;",
		"отметки голосования (votes, ключ = номер вопроса): " + strings.Join(voteLabels(), ", ") + ".",

		"ВАЖНО:",
		"1. Если поля нет на этой странице, верни пустую строку \"\". НИКОГДА не используй null и слово \"null\".",
		fmt.Sprintf("2. Если поле есть, но неразборчиво, пиши \"%s\".", constants.ErrorSentinel),
		"3. СНИЛС и ФИО крайне важны для объединения страниц, переписывай их точно.",
		"Ответ строго в формате JSON: {\"isStartPage\": bool, \"data\": {...}}.",
	}
	return strings.Join(parts, "\n")
}

// BuildUserPrompt gives the model the page position. Page numbers help with
// the start page decision on multi-page scans.
func BuildUserPrompt(req PageRequest) string {
	var b strings.Builder
	if src := strings.TrimSpace(req.SourceFile); src != "" {
		b.WriteString("Файл: ")
		b.WriteString(src)
		b.WriteString("\n")
	}
	if req.PageNumber > 0 {
		fmt.Fprintf(&b, "Страница: %d\n", req.PageNumber)
	}
	b.WriteString("\nИзображение страницы приложено. Верни ТОЛЬКО JSON по схеме.")
	return b.String()
}

func voteLabels() []string {
	votes := constants.AllVotes()
	out := make([]string, len(votes))
	for i, v := range votes {
		out[i] = v.Label()
	}
	return out
}
