package quiz

import "github.com/PYTHAGON2/cdcfib-mock-test/internal/models"

// QuestionView is a question as the quiz taker may see it. The key and the
// note stay hidden until the question is locked.
type QuestionView struct {
	ID            string              `json:"id"`
	Text          string              `json:"questionText"`
	Type          models.QuestionType `json:"type"`
	Options       []string            `json:"options,omitempty"`
	Answer        models.Answer       `json:"answer"`
	Locked        bool                `json:"locked"`
	Status        Status              `json:"status,omitempty"`
	CorrectAnswer *models.Answer      `json:"correctAnswer,omitempty"`
	Note          string              `json:"note,omitempty"`
}

type SessionView struct {
	ID           string              `json:"id"`
	QuizID       string              `json:"quizId"`
	QuizTitle    string              `json:"quizTitle"`
	UserName     string              `json:"userName"`
	Timer        models.TimerConfig  `json:"timer"`
	TimeLeft     int                 `json:"timeLeft"`
	CurrentIndex int                 `json:"currentIndex"`
	Total        int                 `json:"total"`
	Answered     int                 `json:"answered"`
	Finished     bool                `json:"finished"`
	FinishReason models.FinishReason `json:"finishReason,omitempty"`
	Questions    []QuestionView      `json:"questions"`
}

// View projects a session state for its owner.
func View(st *models.SessionState) SessionView {
	v := SessionView{
		ID:           st.ID,
		QuizID:       st.QuizID,
		QuizTitle:    st.QuizTitle,
		UserName:     st.User.Name,
		Timer:        st.Timer,
		TimeLeft:     st.TimeLeft,
		CurrentIndex: st.CurrentIndex,
		Total:        len(st.Questions),
		Finished:     st.Finished,
		FinishReason: st.FinishReason,
		Questions:    make([]QuestionView, len(st.Questions)),
	}

	for i, q := range st.Questions {
		ans := models.NoAnswer()
		if i < len(st.Answers) {
			ans = st.Answers[i].Answer
		}
		if !ans.IsBlank() {
			v.Answered++
		}

		qv := QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Type:    q.Type,
			Options: q.Choices(),
			Answer:  ans,
			Locked:  st.IsLocked(q.ID),
		}
		if qv.Locked {
			correct := q.CorrectAnswer
			qv.Status = Grade(q, ans)
			qv.CorrectAnswer = &correct
			if st.ShowNotesAfterQuestion {
				qv.Note = q.NoteText()
			}
		}
		v.Questions[i] = qv
	}
	return v
}
