package engine

// Wire shapes requested from the LLM. The json and description tags become the
// JSON schema the providers hand to the model.

type serpQueryList struct {
	Queries []serpQuery `json:"queries" description:"List of SERP queries."`
}

type serpQuery struct {
	Query        string `json:"query" description:"The SERP query."`
	ResearchGoal string `json:"research_goal" description:"The goal of the research that this query is meant to accomplish, plus further research directions once results are found."`
}

type searchEngineQueryList struct {
	Queries []string `json:"queries" description:"Short search engine queries, each under ten words."`
}

type sourceEvaluationList struct {
	Evaluations []sourceEvaluation `json:"evaluations" description:"List of source evaluations."`
}

type sourceEvaluation struct {
	URL               string   `json:"url" description:"URL of the source."`
	Title             string   `json:"title" description:"Title of the source."`
	CredibilityRating string   `json:"credibility_rating" description:"Credibility rating of the source." enum:"high,medium-high,medium,low"`
	RelevanceRating   string   `json:"relevance_rating" description:"Relevance rating of the source." enum:"high,medium-high,medium,low"`
	Justification     string   `json:"justification" description:"Justification for the ratings."`
	KeyPoints         []string `json:"key_points" description:"Key points extracted from the source."`
}

type extraction struct {
	Learnings         []string `json:"learnings" description:"List of learnings, dense with entities, metrics, numbers and dates."`
	FollowUpQuestions []string `json:"follow_up_questions" description:"Follow-up questions to research the topic further."`
}
