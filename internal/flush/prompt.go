package flush

// observationPrompt is the system prompt for the Flusher's LLM call,
// asking the model to extract durable observations from a batch of
// recent tool-use events (spec.md §4.5 step 4).
const observationPrompt = `You are extracting durable engineering memory from a short batch of tool-use events produced by an AI coding assistant.

For each event that represents a meaningful unit of work (a bug fixed, a feature added, a refactor, a discovery about the codebase, a decision made, or any other notable change), emit one <observation> block:

<observation>
<type>bugfix|feature|refactor|discovery|decision|change</type>
<title>short imperative title</title>
<subtitle>one-line detail</subtitle>
<narrative>a few sentences of what happened and why</narrative>
<facts><fact>...</fact></facts>
<concepts><concept>...</concept></concepts>
<files_read><file>...</file></files_read>
<files_modified><file>...</file></files_modified>
</observation>

Skip events that are routine or carry no durable information. Emit zero observations if nothing in the batch is worth remembering. Do not narrate your own process; only emit <observation> blocks.`
