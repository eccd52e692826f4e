package todds

/**
* Todds is a golang library for estimating the results of ATP tennis matches.
* It acquires historical match records from two external sources (a bulk
* GitHub archive of per-year CSV files and an optional Kaggle dataset),
* merges them into a single dataset and answers ad-hoc head-to-head
* queries with a gradient boosted classifier trained per query.
 */
