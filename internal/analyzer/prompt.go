package analyzer

import "fmt"

func summaryPrompt(transcript string) string {
	return fmt.Sprintf(
		"Summarize this customer support call in 2-3 concise sentences. "+
			"Focus on the customer's problem and any resolution steps.\n\n"+
			"Transcript:\n%s", transcript)
}

func sentimentPrompt(transcript string) string {
	return fmt.Sprintf(
		"Classify the customer's sentiment in ONE WORD from this set: "+
			"Positive, Neutral, Negative. Only output the single word.\n\n"+
			"Transcript:\n%s", transcript)
}
