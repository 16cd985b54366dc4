package course

// ══════════════════════════════════════════════════════════════════════════════
// DATA TRANSFER OBJECTS
// Wire types of the course service API. Ids travel as strings and are
// parsed at the client boundary.
// ══════════════════════════════════════════════════════════════════════════════

// chapterDTO is one chapter of a course.
type chapterDTO struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
}

// chaptersResponseDTO is the response of GET /courses/{id}/chapters.
type chaptersResponseDTO struct {
	CourseID string       `json:"course_id"`
	Chapters []chapterDTO `json:"chapters"`
}

// courseRefDTO is the response of GET /contents/{id}/course.
type courseRefDTO struct {
	ContentID string `json:"content_id"`
	CourseID  string `json:"course_id"`
}
