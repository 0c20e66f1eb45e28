package summarize

// summaryPrompt is the system prompt for the Summarizer worker's LLM call
// (spec.md §4.6 step 8). It asks the model to merge the session's turn
// into the prior summary rather than overwrite it.
const summaryPrompt = `You are maintaining a running summary of one coding session so a future session can pick up where this one left off.

You will receive an optional <existing_summary> block holding the summary built so far, followed by the <last_message> the assistant just sent to the user.

Merge the new information into the existing summary rather than replacing it: keep anything from <existing_summary> still true, update anything superseded, and add anything new from <last_message>.

Respond with exactly one envelope:

<summary>
<request>what the user originally asked for</request>
<completed>what has been finished so far</completed>
<decisions>notable decisions made and why</decisions>
<learned>facts or constraints discovered along the way</learned>
<next_steps>what remains to be done</next_steps>
<preferences>durable preferences the user expressed about how to work</preferences>
</summary>

Leave a field empty if you have nothing to add. If the session has produced nothing worth summarizing, respond with exactly <skip_summary/> and nothing else.`
