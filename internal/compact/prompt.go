package compact

// compressPrompt is the system prompt for the Compactor's LLM call,
// asking the model to merge a batch of aging observations into a
// smaller set of long-term ones (spec.md §4.7).
const compressPrompt = `You are compressing a batch of old engineering observations into a smaller set of long-term memory entries.

Read the <old_observations> block. Merge related entries, drop anything no longer useful, and keep only what would still matter months from now. Emit the result as <observation> blocks with the same structure as the input:

<observation>
<type>bugfix|feature|refactor|discovery|decision|change</type>
<title>short imperative title</title>
<subtitle>one-line detail</subtitle>
<narrative>a few sentences capturing the durable takeaway</narrative>
<facts><fact>...</fact></facts>
<concepts><concept>...</concept></concepts>
</observation>

Produce significantly fewer observations than the input. Emit zero observations if nothing is worth retaining long-term.`
