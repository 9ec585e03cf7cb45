package mcpserver

// RecordFormatContract describes the raw record format that LLM consumers
// should follow when adding records.
const RecordFormatContract = `# jobtrail Record Format Contract

Records are JSON objects stored in one of five collections. Events on the
calendar are derived from them; a record without a valid date for its
collection produces no event.

## Common fields

| Field            | Required | Notes                                   |
|------------------|----------|-----------------------------------------|
| id               | no       | Generated (UUID) when absent            |
| company          | yes      | ` + "`" + `companyName` + "`" + ` is accepted as a fallback |
| role             | no       | ` + "`" + `position` + "`" + ` is accepted as a fallback   |
| location         | no       | Free text                               |
| employmentType   | no       | e.g. full-time, contract                |

## Date fields per collection

Listed in priority order; the first valid one wins.

- **applications**: ` + "`" + `appliedOn` + "`" + `, ` + "`" + `appliedDate` + "`" + `, ` + "`" + `date` + "`" + `, ` + "`" + `createdAt` + "`" + ` → applied
- **interviews**: ` + "`" + `date` + "`" + ` → interview (a time part is kept)
- **rejections**: ` + "`" + `appliedDate` + "`" + ` → applied; ` + "`" + `decisionDate` + "`" + ` → rejected
- **withdrawals**: ` + "`" + `appliedOn` + "`" + `/` + "`" + `appliedDate` + "`" + ` → applied; ` + "`" + `interviewDate` + "`" + ` → interview; ` + "`" + `withdrawnDate` + "`" + ` → withdrawn
- **offers**: ` + "`" + `offerDate` + "`" + `, ` + "`" + `acceptedDate` + "`" + `, ` + "`" + `createdAt` + "`" + ` → offer

## Dates

- ` + "`" + `YYYY-MM-DD` + "`" + ` or an ISO timestamp ` + "`" + `YYYY-MM-DDTHH:MM[:SS][offset]` + "`" + `.
- Unpadded parts (` + "`" + `2024-3-5` + "`" + `) are accepted and normalized.
- Timestamps without an offset are read in the configured calendar timezone.

## Example

` + "```" + `json
{"company": "Acme", "role": "Backend engineer", "date": "2024-03-12T14:30", "location": "Remote"}
` + "```" + `
`
