package session

// User-facing texts. Every failure names the next action, no request is
// ever answered with silence.

const (
	msgSendPhotos = "Пришлите до %d фото, на которых хорошо видно ваше лицо 📸\n" +
		"Когда закончите — нажмите «Готово»."
	msgPhotoAccepted  = "Фото %d из %d сохранено. Пришлите ещё или нажмите «Готово»."
	msgPhotosComplete = "Отлично, референс готов! ✨ Теперь опишите сцену или выберите её кнопкой."
	msgNeedOnePhoto   = "Сначала пришлите хотя бы одно фото, потом нажмите «Готово»."
	msgPhotosReset    = "Референсы удалены. Нажмите «Изменить фото», чтобы загрузить новые."
	msgStrayPhoto     = "Чтобы обновить референс, сначала нажмите «Изменить фото»."
	msgAwaitingPhoto  = "Сейчас я жду фото. Пришлите снимок или нажмите «Готово»."

	msgChooseStyle = "Выберите стиль будущих снимков:"
	msgStyleChosen = "Стиль «%s» выбран. Теперь опишите сцену или выберите её кнопкой."

	msgEmptyScene = "Опишите сцену словами — например, «я на Мальдивах» 🏝"
	msgUnknown    = "Я вас не поняла. Опишите сцену текстом или воспользуйтесь кнопками."

	msgDoneCaption = "Готово за %.1f с ✨"

	msgNoReference = "Сначала загрузите своё фото 📸 — нажмите «Изменить фото»."
	msgQuotaOver   = "Лимит генераций на сегодня исчерпан 😔 Возвращайтесь завтра " +
		"или оформите подписку, чтобы снять ограничение."
	msgCapacity = "Больше фото добавить нельзя (максимум %d). " +
		"Нажмите «Сбросить фото», чтобы начать заново."
	msgBadResponse = "Сервис генерации вернул неожиданный ответ. Попробуйте ещё раз чуть позже."
	msgProviderErr = "Не получилось сгенерировать изображение: %s\nПопробуйте ещё раз."
	msgInternal    = "Что-то пошло не так. Попробуйте ещё раз."
)

// styleLabels maps known style names to button labels.
var styleLabels = map[string]string{
	"natural":   "Естественный",
	"glamour":   "Гламур",
	"cinematic": "Кинематографичный",
	"retro":     "Ретро",
}
