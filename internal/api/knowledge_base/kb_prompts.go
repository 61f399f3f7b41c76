package knowledgebase

// Prompts are the canned review questions offered on every city page. The
// kb form posts the index of the chosen question.
var Prompts = []string{
	"What activities are popular in the reviews?",
	"What food do the reviews recommend?",
	"What did reviewers like the most?",
	"What are the recommended neighborhoods?",
}

// groundedPromptTemplate is handed to RetrieveAndGenerate; the service fills
// the $query$, $search_results$ and $output_format_instructions$ placeholders.
const groundedPromptTemplate = `
A chat between a curious User and an artificial intelligence Bot. The Bot
gives helpful, detailed, and polite answers to the User's questions.

In this session, the model has access to search results and a user's question,
your job is to answer the user's question using only information from the
search results.

Model Instructions:
- You should provide concise answer to simple questions when the answer is
directly contained in search results, but when comes to yes/no question,
provide some details.
- In case the question requires multi-hop reasoning, you should find relevant
information from search results and summarize the answer based on relevant
information with logical reasoning.
- If the search results do not contain information that can answer the
question, please state that you could not find an exact answer to the question,
and if search results are completely irrelevant, say that you could not find an
exact answer, then summarize search results.
- $output_format_instructions$
- DO NOT USE INFORMATION THAT IS NOT IN SEARCH RESULTS!

User: $query$ Bot:
Resource: Search Results: $search_results$ Bot:
`
